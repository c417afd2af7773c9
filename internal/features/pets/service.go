package pets

import (
	"context"
	"io"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/pkg/cloudinary"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/pagination"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

// RecordPurger removes the health history of a deleted pet.
type RecordPurger interface {
	DeleteByPet(ctx context.Context, petID, ownerID primitive.ObjectID) (int64, error)
}

var errPetNotFound = apperrors.NotFound("pet")

type Service struct {
	store    Store
	uploader cloudinary.Uploader
	purger   RecordPurger
	now      func() time.Time
}

// NewService wires the pet service. uploader may be nil when image hosting
// is not configured.
func NewService(store Store, uploader cloudinary.Uploader, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, uploader: uploader, now: now}
}

// SetRecordPurger is called once at wiring time; health depends on pets so
// it cannot be passed to NewService.
func (s *Service) SetRecordPurger(p RecordPurger) { s.purger = p }

func (s *Service) Create(ctx context.Context, ownerID primitive.ObjectID, req CreatePetRequest) (*Pet, error) {
	birth, err := ParseDate(req.BirthDate)
	if err != nil {
		return nil, apperrors.Validation("validation failed", err.Error())
	}

	now := s.now()
	pet := &Pet{
		OwnerID:           ownerID,
		Name:              strings.TrimSpace(req.Name),
		Species:           Species(strings.ToLower(string(req.Species))),
		Breed:             strings.TrimSpace(req.Breed),
		BirthDate:         birth,
		Weight:            req.Weight,
		Height:            req.Height,
		Gender:            Gender(strings.ToLower(string(req.Gender))),
		IsNeutered:        req.IsNeutered,
		MicrochipID:       strings.TrimSpace(req.MicrochipID),
		MedicalConditions: cleanList(req.MedicalConditions),
		Allergies:         cleanList(req.Allergies),
		IsActive:          true,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if details := ValidatePet(pet, now); len(details) > 0 {
		return nil, apperrors.Validation("validation failed", details...)
	}

	if err := s.store.Create(ctx, pet); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("pet created",
		zap.String("pet_id", pet.ID.Hex()),
		zap.String("owner_id", ownerID.Hex()),
		zap.String("species", string(pet.Species)))

	pet.derive(now)
	return pet, nil
}

// Get returns the pet only when ownerID owns it.
func (s *Service) Get(ctx context.Context, ownerID, id primitive.ObjectID) (*Pet, error) {
	pet, err := s.store.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if pet == nil {
		return nil, errPetNotFound
	}
	pet.derive(s.now())
	return pet, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id primitive.ObjectID, req UpdatePetRequest) (*Pet, error) {
	patch, err := patchFromRequest(req)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperrors.Validation("no updatable fields supplied")
	}

	current, err := s.store.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errPetNotFound
	}
	if req.Version != nil && *req.Version != current.Version {
		return nil, apperrors.ErrConflict
	}

	now := s.now()
	merged := clonePet(current)
	patch.Apply(merged)
	if details := ValidatePet(merged, now); len(details) > 0 {
		return nil, apperrors.Validation("validation failed", details...)
	}

	updated, err := s.store.UpdateOwned(ctx, id, ownerID, patch, req.Version, now)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, s.missOrConflict(ctx, ownerID, id)
	}

	updated.derive(now)
	return updated, nil
}

// missOrConflict explains an update that matched nothing: the pet is gone
// or another write bumped its version in between.
func (s *Service) missOrConflict(ctx context.Context, ownerID, id primitive.ObjectID) error {
	still, err := s.store.FindOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if still == nil {
		return errPetNotFound
	}
	return apperrors.ErrConflict
}

func patchFromRequest(req UpdatePetRequest) (Patch, error) {
	p := Patch{
		Weight:     req.Weight,
		Height:     req.Height,
		IsNeutered: req.IsNeutered,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		p.Name = &name
	}
	if req.Species != nil {
		sp := Species(strings.ToLower(string(*req.Species)))
		p.Species = &sp
	}
	if req.Gender != nil {
		g := Gender(strings.ToLower(string(*req.Gender)))
		p.Gender = &g
	}
	if req.Breed != nil {
		breed := strings.TrimSpace(*req.Breed)
		p.Breed = &breed
	}
	if req.MicrochipID != nil {
		chip := strings.TrimSpace(*req.MicrochipID)
		p.MicrochipID = &chip
	}
	if req.BirthDate != nil {
		birth, err := ParseDate(*req.BirthDate)
		if err != nil {
			return Patch{}, apperrors.Validation("validation failed", err.Error())
		}
		p.BirthDate = &birth
	}
	if req.MedicalConditions != nil {
		list := cleanList(*req.MedicalConditions)
		p.MedicalConditions = &list
	}
	if req.Allergies != nil {
		list := cleanList(*req.Allergies)
		p.Allergies = &list
	}
	return p, nil
}

// Delete removes the pet and then its health records.
func (s *Service) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	pet, err := s.store.FindOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if pet == nil {
		return errPetNotFound
	}

	deleted, err := s.store.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return errPetNotFound
	}

	lg := logger.FromContext(ctx).With(zap.String("pet_id", id.Hex()), zap.String("owner_id", ownerID.Hex()))
	var purged int64
	if s.purger != nil {
		// The records are unreachable without their pet, so a failure
		// here only leaves garbage behind.
		if purged, err = s.purger.DeleteByPet(ctx, id, ownerID); err != nil {
			lg.Warn("health records not purged", zap.Error(err))
		}
	}
	lg.Info("pet deleted", zap.Int64("health_records_removed", purged))
	if s.uploader != nil && pet.AvatarPublicID != "" {
		if err := s.uploader.Delete(ctx, pet.AvatarPublicID); err != nil {
			lg.Warn("pet avatar not removed", zap.Error(err))
		}
	}
	return nil
}

// SetAvatar uploads a new picture and drops the previous one.
func (s *Service) SetAvatar(ctx context.Context, ownerID, id primitive.ObjectID, file io.Reader) (*Pet, error) {
	if s.uploader == nil {
		return nil, apperrors.Unavailable(cloudinary.ErrNotConfigured)
	}

	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploader.UploadImage(ctx, file, "pets")
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}

	now := s.now()
	updated, err := s.store.UpdateOwned(ctx, id, ownerID, Patch{
		Avatar:         &uploaded.URL,
		AvatarPublicID: &uploaded.PublicID,
	}, nil, now)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		_ = s.uploader.Delete(ctx, uploaded.PublicID)
		return nil, errPetNotFound
	}

	if current.AvatarPublicID != "" {
		if err := s.uploader.Delete(ctx, current.AvatarPublicID); err != nil {
			logger.FromContext(ctx).Warn("previous pet avatar not removed",
				zap.String("public_id", current.AvatarPublicID), zap.Error(err))
		}
	}

	updated.derive(now)
	return updated, nil
}

// List pages through the caller's pets.
func (s *Service) List(ctx context.Context, ownerID primitive.ObjectID, q ListPetsQuery) ([]Pet, *pagination.Pagination, error) {
	filter := Owned(ownerID)
	return s.list(ctx, filter, q)
}

// AdminList pages through every pet. Callers sit behind RequireAdmin.
func (s *Service) AdminList(ctx context.Context, q ListPetsQuery) ([]Pet, *pagination.Pagination, error) {
	return s.list(ctx, Filter{}, q)
}

func (s *Service) list(ctx context.Context, filter Filter, q ListPetsQuery) ([]Pet, *pagination.Pagination, error) {
	if q.Species != "" {
		sp := Species(strings.ToLower(q.Species))
		if !sp.Valid() {
			return nil, nil, apperrors.Validation("species must be one of: dog, cat, other")
		}
		filter.Species = sp
	}
	filter.Search = q.Search

	page := pagination.Request{Page: q.Page, Limit: q.Limit}.Normalize()
	items, total, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	for i := range items {
		items[i].derive(now)
	}
	return items, pagination.New(page.Page, page.Limit, total), nil
}

// Stats summarises the caller's pets.
func (s *Service) Stats(ctx context.Context, ownerID primitive.ObjectID) (*Stats, error) {
	all, err := s.store.FindAll(ctx, Owned(ownerID))
	if err != nil {
		return nil, err
	}
	return computeStats(all, s.now()), nil
}

// AdminStats summarises every pet.
func (s *Service) AdminStats(ctx context.Context) (*Stats, error) {
	all, err := s.store.FindAll(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return computeStats(all, s.now()), nil
}

// DeleteAllForOwner removes every pet of ownerID and, best effort, their
// pictures. Health records are purged by the caller.
func (s *Service) DeleteAllForOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	owned, err := s.store.FindAll(ctx, Owned(ownerID))
	if err != nil {
		return 0, err
	}
	deleted, err := s.store.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if s.uploader != nil {
		for _, p := range owned {
			if p.AvatarPublicID == "" {
				continue
			}
			if err := s.uploader.Delete(ctx, p.AvatarPublicID); err != nil {
				logger.FromContext(ctx).Warn("pet avatar not removed",
					zap.String("public_id", p.AvatarPublicID), zap.Error(err))
			}
		}
	}
	return deleted, nil
}

// Count is used by the admin dashboard.
func (s *Service) Count(ctx context.Context, filter Filter) (int64, error) {
	return s.store.Count(ctx, filter)
}

func computeStats(all []Pet, now time.Time) *Stats {
	st := &Stats{
		Total:     int64(len(all)),
		BySpecies: map[Species]int{},
		ByGender:  map[Gender]int{},
	}
	if len(all) == 0 {
		return st
	}

	ageSum := 0
	for _, p := range all {
		st.BySpecies[p.Species]++
		st.ByGender[p.Gender]++
		if p.IsNeutered {
			st.Neutered++
		}
		ageSum += AgeAt(p.BirthDate, now)
	}
	st.AverageAge = math.Round(float64(ageSum)/float64(len(all))*10) / 10
	return st
}
