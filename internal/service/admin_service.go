package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parkent-market/internal/domain"
	"parkent-market/internal/repository"
)

// AdminCommand es el conjunto cerrado de acciones del panel de administración.
// Cada variante lleva sus parámetros tipados; el despacho es exhaustivo.
type AdminCommand interface {
	isAdminCommand()
}

type (
	GetStatsCommand       struct{}
	GetAllListingsCommand struct{}
	GetAllUsersCommand    struct{}
	GetCategoriesCommand  struct{}
	GetPartnersCommand    struct{}
	GetBannersCommand     struct{}

	CreatePartnerCommand struct {
		Name         string `json:"name"`
		LogoURL      string `json:"logo_url"`
		WebsiteURL   string `json:"website_url"`
		TelegramURL  string `json:"telegram_url"`
		InstagramURL string `json:"instagram_url"`
		FacebookURL  string `json:"facebook_url"`
	}

	UpdatePartnerCommand struct {
		PartnerID    string `json:"partner_id"`
		Name         string `json:"name"`
		LogoURL      string `json:"logo_url"`
		WebsiteURL   string `json:"website_url"`
		TelegramURL  string `json:"telegram_url"`
		InstagramURL string `json:"instagram_url"`
		FacebookURL  string `json:"facebook_url"`
	}

	DeletePartnerCommand struct {
		PartnerID string `json:"partner_id"`
	}

	ApproveListingCommand struct {
		ListingID string `json:"listing_id"`
		Days      int    `json:"days"`
	}

	RejectListingCommand struct {
		ListingID string `json:"listing_id"`
		Reason    string `json:"reason"`
	}
)

func (GetStatsCommand) isAdminCommand()       {}
func (GetAllListingsCommand) isAdminCommand() {}
func (GetAllUsersCommand) isAdminCommand()    {}
func (GetCategoriesCommand) isAdminCommand()  {}
func (GetPartnersCommand) isAdminCommand()    {}
func (GetBannersCommand) isAdminCommand()     {}
func (CreatePartnerCommand) isAdminCommand()  {}
func (UpdatePartnerCommand) isAdminCommand()  {}
func (DeletePartnerCommand) isAdminCommand()  {}
func (ApproveListingCommand) isAdminCommand() {}
func (RejectListingCommand) isAdminCommand()  {}

var ErrUnknownAction = errors.New("unknown action")

// DecodeAdminCommand convierte el par acción/params del wire en una variante tipada.
func DecodeAdminCommand(action string, params json.RawMessage) (AdminCommand, error) {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	switch action {
	case "get_stats":
		return GetStatsCommand{}, nil
	case "get_all_listings":
		return GetAllListingsCommand{}, nil
	case "get_all_users":
		return GetAllUsersCommand{}, nil
	case "get_categories":
		return GetCategoriesCommand{}, nil
	case "get_partners":
		return GetPartnersCommand{}, nil
	case "get_banners":
		return GetBannersCommand{}, nil
	case "create_partner":
		var cmd CreatePartnerCommand
		if err := json.Unmarshal(params, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case "update_partner":
		var cmd UpdatePartnerCommand
		if err := json.Unmarshal(params, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case "delete_partner":
		var cmd DeletePartnerCommand
		if err := json.Unmarshal(params, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case "approve_listing":
		var cmd ApproveListingCommand
		if err := json.Unmarshal(params, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case "reject_listing":
		var cmd RejectListingCommand
		if err := json.Unmarshal(params, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

// AdminStats agrega los contadores del dashboard.
type AdminStats struct {
	TotalListings   int64 `json:"total_listings"`
	TotalUsers      int64 `json:"total_users"`
	PendingListings int64 `json:"pending_listings"`
	ActiveListings  int64 `json:"active_listings"`
	PremiumUsers    int64 `json:"premium_users"`
	BlockedUsers    int64 `json:"blocked_users"`
}

// ProfileWithRole agrega el rol al perfil para las vistas de administración.
type ProfileWithRole struct {
	domain.Profile
	Role domain.Role `json:"role"`
}

// AdminService ejecuta comandos administrativos sobre los repositorios.
type AdminService struct {
	logger   *zap.Logger
	listings repository.ListingRepository
	profiles repository.ProfileRepository
	roles    repository.RoleRepository
	partners repository.PartnerRepository
	banners  repository.BannerRepository
	catalogs repository.CategoryRepository
}

func NewAdminService(
	logger *zap.Logger,
	listings repository.ListingRepository,
	profiles repository.ProfileRepository,
	roles repository.RoleRepository,
	partners repository.PartnerRepository,
	banners repository.BannerRepository,
	catalogs repository.CategoryRepository,
) *AdminService {
	return &AdminService{
		logger:   logger,
		listings: listings,
		profiles: profiles,
		roles:    roles,
		partners: partners,
		banners:  banners,
		catalogs: catalogs,
	}
}

// Execute despacha el comando a su operación. El resultado es el JSON propio
// de cada acción.
func (s *AdminService) Execute(ctx context.Context, cmd AdminCommand) (any, error) {
	switch c := cmd.(type) {
	case GetStatsCommand:
		return s.stats(ctx)
	case GetAllListingsCommand:
		listings, err := s.listings.ListAllWithOwner(ctx)
		if err != nil {
			return nil, err
		}
		if listings == nil {
			listings = []domain.ListingWithOwner{}
		}
		return listings, nil
	case GetAllUsersCommand:
		return s.allUsers(ctx)
	case GetCategoriesCommand:
		categories, err := s.catalogs.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		if categories == nil {
			categories = []domain.Category{}
		}
		return categories, nil
	case GetPartnersCommand:
		partners, err := s.partners.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		if partners == nil {
			partners = []domain.Partner{}
		}
		return partners, nil
	case GetBannersCommand:
		banners, err := s.banners.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		if banners == nil {
			banners = []domain.Banner{}
		}
		return banners, nil
	case CreatePartnerCommand:
		now := time.Now().UTC()
		partner := domain.Partner{
			ID:           uuid.NewString(),
			Name:         c.Name,
			LogoURL:      c.LogoURL,
			WebsiteURL:   c.WebsiteURL,
			TelegramURL:  c.TelegramURL,
			InstagramURL: c.InstagramURL,
			FacebookURL:  c.FacebookURL,
			IsActive:     true,
			SortOrder:    0,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.partners.Create(ctx, partner); err != nil {
			return nil, err
		}
		return partner, nil
	case UpdatePartnerCommand:
		partner := domain.Partner{
			ID:           c.PartnerID,
			Name:         c.Name,
			LogoURL:      c.LogoURL,
			WebsiteURL:   c.WebsiteURL,
			TelegramURL:  c.TelegramURL,
			InstagramURL: c.InstagramURL,
			FacebookURL:  c.FacebookURL,
		}
		updated, err := s.partners.Update(ctx, partner)
		if err != nil {
			return nil, err
		}
		return updated, nil
	case DeletePartnerCommand:
		if err := s.partners.Delete(ctx, c.PartnerID); err != nil {
			return nil, err
		}
		return map[string]bool{"success": true}, nil
	case ApproveListingCommand:
		days := c.Days
		if days <= 0 {
			days = 5
		}
		if err := s.listings.Approve(ctx, c.ListingID, days, time.Now().UTC()); err != nil {
			return nil, err
		}
		return map[string]bool{"success": true}, nil
	case RejectListingCommand:
		if err := s.listings.Reject(ctx, c.ListingID, c.Reason, time.Now().UTC()); err != nil {
			return nil, err
		}
		return map[string]bool{"success": true}, nil
	default:
		return nil, ErrUnknownAction
	}
}

func (s *AdminService) stats(ctx context.Context) (AdminStats, error) {
	listingStats, err := s.listings.Stats(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	totalUsers, err := s.profiles.CountAll(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	premium, err := s.profiles.CountPremium(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	blocked, err := s.profiles.CountBlocked(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	return AdminStats{
		TotalListings:   listingStats.Total,
		TotalUsers:      totalUsers,
		PendingListings: listingStats.Pending,
		ActiveListings:  listingStats.Active,
		PremiumUsers:    premium,
		BlockedUsers:    blocked,
	}, nil
}

func (s *AdminService) allUsers(ctx context.Context) ([]ProfileWithRole, error) {
	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]ProfileWithRole, 0, len(profiles))
	for _, p := range profiles {
		role, err := s.roles.GetRole(ctx, p.AccountID)
		if err != nil {
			s.logger.Warn("role fetch failed",
				zap.Error(err),
				zap.String("account_id", p.AccountID),
			)
		}
		users = append(users, ProfileWithRole{Profile: p, Role: role})
	}
	return users, nil
}
