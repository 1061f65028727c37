// Package report produces free-text laboratory reports from a snapshot of the
// current state through an external text generation service.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labqms/pkg/domain"
)

// Fallback is returned in place of an answer whenever generation fails.
const Fallback = "抱歉，生成報告時發生錯誤，請稍後再試。"

// DefaultTemperature is sent with every request unless overridden.
const DefaultTemperature = 0.7

// ErrBusy is returned when a report is requested while another is in flight.
var ErrBusy = errors.New("report: generation already in progress")

// Snapshot is the dataset handed to the generator alongside the prompt.
type Snapshot struct {
	Instruments []domain.Instrument `json:"instruments"`
	Materials   []domain.Material   `json:"materials"`
	Users       []domain.User       `json:"users"`
	LoanRecords []domain.LoanRecord `json:"loanRecords"`
	// Qualifications of the user asking.
	Qualifications []string `json:"userQualifications"`
}

// Request is one generation call.
type Request struct {
	Prompt            string   `json:"prompt"`
	SystemInstruction string   `json:"systemInstruction"`
	Temperature       float64  `json:"temperature"`
	Snapshot          Snapshot `json:"data"`
}

// Generator turns a request into report text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// PendingCalibration returns the names of instruments whose stored status is
// pending calibration, in snapshot order.
func (s Snapshot) PendingCalibration() []string {
	var names []string
	for _, inst := range s.Instruments {
		if inst.Status == domain.StatusPendingCalibration {
			names = append(names, inst.InstrumentName)
		}
	}
	return names
}

// SystemInstruction builds the assistant instruction with a summary of s.
func SystemInstruction(s Snapshot) string {
	var b strings.Builder
	b.WriteString("你是一位精通 ISO 17025 規範的實驗室品質管理助理。\n")
	b.WriteString("你手頭上有實驗室目前的數據，包括儀器、標準物資與所有人員的資料與訓練紀錄。\n\n")
	b.WriteString("人員管理關鍵點：\n")
	b.WriteString("- 人員具有多重資格，並附有教育訓練紀錄。\n")
	b.WriteString("- 訓練分為「內訓」與「外訓」。\n")
	b.WriteString("- 每項訓練包含上課日期、時數、受訓單位、回訓日期與資格期限。\n")
	b.WriteString("- 回訓日期或資格期限早於今日時，視為能力缺失風險。\n\n")
	b.WriteString("請根據數據回答使用者的問題。若問題涉及訓練狀態或人員能力，請列出需要安排回訓的人員。\n")
	b.WriteString("請使用專業繁體中文，必要時使用 Markdown 表格。\n\n")
	b.WriteString("數據摘要：\n")
	fmt.Fprintf(&b, "- 儀器總數：%d\n", len(s.Instruments))
	fmt.Fprintf(&b, "- 待送校儀器：%s\n", strings.Join(s.PendingCalibration(), ", "))
	fmt.Fprintf(&b, "- 標準物資總數：%d\n", len(s.Materials))
	fmt.Fprintf(&b, "- 人員總數：%d\n", len(s.Users))
	return b.String()
}
