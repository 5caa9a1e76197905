package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo RepositoryManager
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user := &User{
			Username:     event.Username,
			PasswordHash: hash,
		}

		if _, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return nil
}
