package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"labqms/internal/auth"
	"labqms/internal/status"
	"labqms/pkg/domain"
)

// SaveUser upserts a person by username. Qualifications are replaced, training
// logs are kept, and a blank password keeps the stored hash (or falls back to
// the default password for a new user).
func (s *Service) SaveUser(ctx context.Context, actor Actor, in UserInput) (User, Result, error) {
	return s.saveUser(ctx, "save_user", actor, in, false)
}

// CreateUser adds a person and fails with ErrAlreadyExists when the username is taken.
func (s *Service) CreateUser(ctx context.Context, actor Actor, in UserInput) (User, Result, error) {
	return s.saveUser(ctx, "create_user", actor, in, true)
}

func (s *Service) saveUser(ctx context.Context, op string, actor Actor, in UserInput, strict bool) (User, Result, error) {
	var saved User
	var res Result
	err := s.run(ctx, op, actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, op, personnelManagers); err != nil {
			return in.Username, err
		}
		if err := s.validate.Check(in); err != nil {
			return in.Username, err
		}
		var fresh string
		if in.Password != "" {
			hash, err := s.hasher.Hash(in.Password)
			if err != nil {
				return in.Username, err
			}
			fresh = hash
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			current, exists := tx.View().FindUser(in.Username)
			if exists && strict {
				return DuplicateError{Entity: EntityUser, Key: in.Username}
			}
			hash := fresh
			if hash == "" {
				hash = current.PasswordHash
			}
			if hash == "" {
				h, err := s.hasher.Hash(auth.DefaultPassword)
				if err != nil {
					return err
				}
				hash = h
			}
			saved = tx.PutUser(User{
				Username:       in.Username,
				Name:           in.Name,
				PasswordHash:   hash,
				Qualifications: slices.Clone(in.Qualifications),
				TrainingLogs:   nonNil(current.TrainingLogs),
			})
			return nil
		})
		return in.Username, err
	})
	if err != nil {
		return User{}, res, err
	}
	return saved, res, nil
}

// DeleteUser removes a person after confirmation. The admin account is refused
// before any authorization check.
func (s *Service) DeleteUser(ctx context.Context, actor Actor, username string, c Confirmer) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_user", actor, func(ctx context.Context) (string, error) {
		if username == domain.AdminUsername {
			return username, domain.ErrProtectedUser
		}
		if err := authorize(actor, "delete_user", personnelManagers); err != nil {
			return username, err
		}
		var target User
		err := s.store.View(ctx, func(v TransactionView) error {
			u, ok := v.FindUser(username)
			if !ok {
				return NotFoundError{Entity: EntityUser, Key: username}
			}
			target = u
			return nil
		})
		if err != nil {
			return username, err
		}
		if err := confirm(ctx, c, fmt.Sprintf("確定要刪除人員 %s 嗎？", target.Name)); err != nil {
			return username, err
		}
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			return tx.DeleteUser(username)
		})
		return username, err
	})
	return res, err
}

// AddTrainingRecord prepends a course attendance to a person's training log.
func (s *Service) AddTrainingRecord(ctx context.Context, actor Actor, username string, rec TrainingRecord) (TrainingRecord, Result, error) {
	var res Result
	err := s.run(ctx, "add_training", actor, func(ctx context.Context) (string, error) {
		if err := authorize(actor, "add_training", personnelManagers); err != nil {
			return username, err
		}
		rec.Date = status.DateOf(rec.Date)
		rec.ExpiryDate = status.DateOf(rec.ExpiryDate)
		rec.RetrainingDate = status.DateOf(rec.RetrainingDate)
		if err := s.validate.Check(rec); err != nil {
			return username, err
		}
		if rec.ID == "" {
			rec.ID = newID()
		}
		var err error
		res, err = s.mutate(ctx, func(tx *Transaction) error {
			_, err := tx.UpdateUser(username, func(u *User) error {
				u.TrainingLogs = prepend(u.TrainingLogs, rec)
				return nil
			})
			return err
		})
		return username, err
	})
	if err != nil {
		return TrainingRecord{}, res, err
	}
	return rec, res, nil
}

// Authenticate accepts the first user in roster order whose username or
// display name equals login and whose password matches. Every failure is
// reported as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (Actor, error) {
	var candidates []User
	err := s.store.View(ctx, func(v TransactionView) error {
		for _, u := range v.ListUsers() {
			if u.Username == login || u.Name == login {
				candidates = append(candidates, u)
			}
		}
		return nil
	})
	if err != nil {
		return Actor{}, err
	}
	if len(candidates) == 0 {
		s.logger.Warn("login rejected", "login", login, "reason", "unknown user")
		return Actor{}, domain.ErrInvalidCredentials
	}
	for _, u := range candidates {
		err := s.hasher.Compare(u.PasswordHash, password)
		if err == nil {
			s.logger.Info("login accepted", "username", u.Username)
			return domain.ActorFromUser(u), nil
		}
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			s.logger.Error("password check failed", "username", u.Username, "error", err)
		}
	}
	s.logger.Warn("login rejected", "login", login, "reason", "password mismatch")
	return Actor{}, domain.ErrInvalidCredentials
}

// ActorFor rebuilds the actor for a session from the current user record, so
// qualification edits apply to the next request.
func (s *Service) ActorFor(ctx context.Context, username string) (Actor, error) {
	var actor Actor
	err := s.store.View(ctx, func(v TransactionView) error {
		u, ok := v.FindUser(username)
		if !ok {
			return NotFoundError{Entity: EntityUser, Key: username}
		}
		actor = domain.ActorFromUser(u)
		return nil
	})
	return actor, err
}
