package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/selfire1/gridtip-sub000/internal/config"
	"github.com/selfire1/gridtip-sub000/internal/errors"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/repository"
)

const (
	defaultCutoffMinutes = 180
	maxCutoffMinutes     = config.MaxCutoffMinutes
	maxNameLength        = 64
	joinCodeAttempts     = 5
	qrSize               = 256
)

// GroupServiceRepository defines the repository methods needed by GroupService
type GroupServiceRepository interface {
	repository.GroupRepository
	repository.MemberRepository
}

// GroupService handles groups, members and their invite codes
type GroupService struct {
	log         logger.Logger
	repo        GroupServiceRepository
	settings    SettingsServicer
	invalidator Invalidator
	newID       func() string // defaults to uuid.NewString
}

// NewGroupService creates a new GroupService
func NewGroupService(log logger.Logger, repo GroupServiceRepository, settings SettingsServicer, invalidator Invalidator) *GroupService {
	return &GroupService{
		log:         log,
		repo:        repo,
		settings:    settings,
		invalidator: invalidator,
		newID:       uuid.NewString,
	}
}

// SetIDGenerator sets the source of join code seeds and member tokens (for testing)
func (s *GroupService) SetIDGenerator(gen func() string) {
	s.newID = gen
}

// GenerateReadableCode creates a short, readable code from input data
// Uses only clear characters (no O/0/I/1/L) - format: XX-YYY
func GenerateReadableCode(seed string) string {
	const chars = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

	hash := sha256.Sum256([]byte(seed))
	num := binary.BigEndian.Uint64(hash[:8])

	code := make([]byte, 5)
	for i := 0; i < 5; i++ {
		code[i] = chars[num%uint64(len(chars))]
		num /= uint64(len(chars))
	}

	return fmt.Sprintf("%s-%s", string(code[:2]), string(code[2:]))
}

// CreateGroup creates a group and its first member, who administers it.
// A negative cutoff selects the configured default.
func (s *GroupService) CreateGroup(ctx context.Context, name string, cutoffMinutes int, ownerName string) (*models.Group, *models.Member, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, nil, err
	}
	ownerName, err = cleanName(ownerName)
	if err != nil {
		return nil, nil, err
	}
	if cutoffMinutes < 0 && s.settings != nil {
		cutoffMinutes, err = s.settings.DefaultCutoffMinutes(ctx)
		if err != nil {
			return nil, nil, err
		}
	}
	if err := validateCutoff(cutoffMinutes); err != nil {
		return nil, nil, err
	}

	var groupID int64
	for attempt := 0; ; attempt++ {
		if attempt == joinCodeAttempts {
			return nil, nil, ErrJoinCodeUnavailable
		}
		groupID, err = s.repo.CreateGroup(ctx, name, GenerateReadableCode(s.newID()), cutoffMinutes)
		if err == repository.ErrDuplicate {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		break
	}

	owner, err := s.addMember(ctx, int(groupID), ownerName, true)
	if err != nil {
		return nil, nil, err
	}
	group, err := s.repo.GetGroup(ctx, int(groupID))
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("Group created", "group_id", group.ID, "name", group.Name, "cutoff_minutes", group.CutoffMinutes)
	return group, owner, nil
}

// JoinGroup adds a member to the group behind joinCode
func (s *GroupService) JoinGroup(ctx context.Context, joinCode, name string) (*models.Member, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(joinCode))
	group, err := s.repo.GetGroupByJoinCode(ctx, code)
	if err == repository.ErrNotFound {
		return nil, errors.NotFound("no group with this join code")
	}
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.MemberNameExists(ctx, group.ID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrNameTaken
	}

	member, err := s.addMember(ctx, group.ID, name, false)
	if err != nil {
		return nil, err
	}
	s.log.Info("Member joined", "group_id", group.ID, "member_id", member.ID, "name", member.Name)
	s.invalidate(ctx, group.ID)
	return member, nil
}

func (s *GroupService) addMember(ctx context.Context, groupID int, name string, isAdmin bool) (*models.Member, error) {
	id, err := s.repo.CreateMember(ctx, groupID, name, s.newID(), isAdmin)
	if err == repository.ErrDuplicate {
		return nil, ErrNameTaken
	}
	if err != nil {
		return nil, err
	}
	return s.repo.GetMember(ctx, int(id))
}

// GetGroup returns a group by id
func (s *GroupService) GetGroup(ctx context.Context, id int) (*models.Group, error) {
	group, err := s.repo.GetGroup(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("group %d not found", id)
	}
	return group, err
}

// ListGroups returns every group
func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.repo.ListGroups(ctx)
}

// ListMembers returns the members of a group without their tokens
func (s *GroupService) ListMembers(ctx context.Context, groupID int) ([]models.Member, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].Token = ""
	}
	return members, nil
}

// GetMemberByToken resolves a member token
func (s *GroupService) GetMemberByToken(ctx context.Context, token string) (*models.Member, error) {
	return memberByToken(ctx, s.repo, token)
}

// UpdateCutoff changes how many minutes before a session a group's tips close
func (s *GroupService) UpdateCutoff(ctx context.Context, groupID, minutes int) error {
	if err := validateCutoff(minutes); err != nil {
		return err
	}
	err := s.repo.UpdateGroupCutoff(ctx, groupID, minutes)
	if err == repository.ErrNotFound {
		return errors.NotFoundf("group %d not found", groupID)
	}
	if err != nil {
		return err
	}
	s.log.Info("Group cutoff updated", "group_id", groupID, "cutoff_minutes", minutes)
	s.invalidate(ctx, groupID)
	return nil
}

// InviteQR renders a PNG QR code pointing at the join page of a group
func (s *GroupService) InviteQR(ctx context.Context, groupID int, baseURL string) ([]byte, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	base, err := s.resolveBaseURL(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(fmt.Sprintf("%s/join/%s", base, group.JoinCode), qrcode.Medium, qrSize)
}

// MemberQR renders a PNG QR code pointing at a member's personal tipping page
func (s *GroupService) MemberQR(ctx context.Context, token, baseURL string) ([]byte, error) {
	member, err := s.GetMemberByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	base, err := s.resolveBaseURL(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(fmt.Sprintf("%s/tips/%s", base, member.Token), qrcode.Medium, qrSize)
}

// resolveBaseURL prefers the explicit base URL and falls back to the stored setting
func (s *GroupService) resolveBaseURL(ctx context.Context, baseURL string) (string, error) {
	if baseURL == "" && s.settings != nil {
		stored, err := s.settings.GetBaseURL(ctx)
		if err != nil {
			return "", err
		}
		baseURL = stored
	}
	if baseURL == "" {
		return "", ErrBaseURLNotSet
	}
	return strings.TrimSuffix(baseURL, "/"), nil
}

func (s *GroupService) invalidate(ctx context.Context, groupID int) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, GroupTag(groupID)); err != nil {
		s.log.Warn("Failed to invalidate leaderboard", "group_id", groupID, "error", err)
	}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > maxNameLength {
		return "", errors.Validationf("name must be at most %d characters", maxNameLength)
	}
	return name, nil
}

func validateCutoff(minutes int) error {
	if minutes < 0 || minutes > maxCutoffMinutes {
		return ErrInvalidCutoff
	}
	return nil
}

// memberByToken maps a missing token onto a NotFound error
func memberByToken(ctx context.Context, repo repository.MemberRepository, token string) (*models.Member, error) {
	if token == "" {
		return nil, errors.NotFound("member not found")
	}
	member, err := repo.GetMemberByToken(ctx, token)
	if err == repository.ErrNotFound {
		return nil, errors.NotFound("member not found")
	}
	return member, err
}
