package core

// NewDefaultRulesEngine builds a rules engine with the built-in invariant set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewSingleActiveLoanRule())
	engine.Register(NewLoanedRequiresActiveLoanRule())
	engine.Register(NewLoanInstrumentReferenceRule())
	engine.Register(NewCalibrationScheduleRule())
	engine.Register(NewStatusVocabularyRule())
	return engine
}
