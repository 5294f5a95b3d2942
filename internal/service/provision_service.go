package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"parkent-market/internal/domain"
	"parkent-market/internal/repository"
)

// ProvisionService mapea una identidad de Telegram a una cuenta durable,
// creando cuenta, perfil y rol en la primera redención.
type ProvisionService struct {
	logger   *zap.Logger
	accounts repository.AccountRepository
	profiles repository.ProfileRepository
	links    *LoginLinkService
}

// ProvisionResult es el paquete devuelto al canjear un código.
type ProvisionResult struct {
	Account      domain.Account
	Tokens       TokenPair
	Profile      *domain.Profile
	IsNewAccount bool
}

var ErrProvisioningFailed = errors.New("provisioning failed")

func NewProvisionService(logger *zap.Logger, accounts repository.AccountRepository, profiles repository.ProfileRepository, links *LoginLinkService) *ProvisionService {
	return &ProvisionService{
		logger:   logger,
		accounts: accounts,
		profiles: profiles,
		links:    links,
	}
}

// ProvisionOrLogin busca la cuenta asociada al telegram id; si no existe la
// crea junto con perfil y rol como unidad atómica, y en ambos casos emite el
// par de tokens mediante el intercambio link-then-verify.
func (s *ProvisionService) ProvisionOrLogin(ctx context.Context, telegramID int64, displayHint string) (ProvisionResult, error) {
	if s.accounts == nil || s.links == nil {
		return ProvisionResult{}, errors.New("provision service not configured")
	}

	email := domain.SyntheticEmail(telegramID)
	account, err := s.accounts.GetByEmail(ctx, email)
	isNew := false
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		account, err = s.createIdentity(ctx, telegramID, email, displayHint)
		if err != nil {
			return ProvisionResult{}, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
		}
		isNew = true
	default:
		return ProvisionResult{}, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	artifact, err := s.links.GenerateLink(ctx, account)
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}
	tokens, _, err := s.links.VerifyLink(ctx, artifact)
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	result := ProvisionResult{
		Account:      account,
		Tokens:       tokens,
		IsNewAccount: isNew,
	}

	// La lectura del perfil es best-effort: un miss devuelve profile nulo.
	if s.profiles != nil {
		profile, err := s.profiles.GetByAccountID(ctx, account.ID)
		if err != nil {
			s.logger.Warn("profile fetch failed",
				zap.Error(err),
				zap.String("account_id", account.ID),
			)
		} else {
			result.Profile = &profile
		}
	}

	return result, nil
}

// createIdentity inserta cuenta, perfil y rol por defecto en una transacción.
// La credencial es aleatoria y nunca se expone: la cuenta solo se accede por
// el flujo de códigos.
func (s *ProvisionService) createIdentity(ctx context.Context, telegramID int64, email, displayHint string) (domain.Account, error) {
	credential := uuid.NewString()
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, err
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:             uuid.NewString(),
		Email:          email,
		TelegramID:     telegramID,
		CredentialHash: string(hashBytes),
		CreatedAt:      now,
	}
	profile := domain.Profile{
		ID:          uuid.NewString(),
		AccountID:   account.ID,
		TelegramID:  telegramID,
		DisplayName: displayHint,
		CreatedAt:   now,
	}
	role := domain.RoleAssignment{
		AccountID: account.ID,
		Role:      domain.RoleUser,
	}

	if err := s.accounts.CreateWithProfileAndRole(ctx, account, profile, role); err != nil {
		return domain.Account{}, err
	}

	s.logger.Info("account provisioned",
		zap.String("account_id", account.ID),
		zap.Int64("telegram_id", telegramID),
	)
	return account, nil
}
