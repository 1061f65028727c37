package core

import (
	"context"

	"labqms/internal/status"
)

// SaveMaterial upserts a material lot. Its status is recomputed from the expiry
// date at save time and a new name is appended to the name catalog.
func (s *Service) SaveMaterial(ctx context.Context, actor Actor, m Material) (Material, Result, error) {
	var saved Material
	var res Result
	err := s.run(ctx, "save_material", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "save_material", materialManagers); err != nil {
			return m.Lot, err
		}
		m.PurchaseDate = status.DateOf(m.PurchaseDate)
		m.ExpiryDate = status.DateOf(m.ExpiryDate)
		if err := s.validate.Check(m); err != nil {
			return m.Lot, err
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			m.Status = status.MaterialStatusAt(m.ExpiryDate, tx.now)
			saved = tx.PutMaterial(m)
			tx.AddMaterialName(m.Name)
			return nil
		})
		return m.Lot, err
	})
	if err != nil {
		return Material{}, res, err
	}
	return saved, res, nil
}

// DeleteMaterial removes a material lot after confirmation.
func (s *Service) DeleteMaterial(ctx context.Context, actor Actor, lot string, c Confirmer) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_material", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "delete_material", materialManagers); err != nil {
			return lot, err
		}
		if err := confirm(ctx, c, "確定要刪除此物資資料嗎？"); err != nil {
			return lot, err
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			return tx.DeleteMaterial(lot)
		})
		return lot, err
	})
	return res, err
}
