package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"medminion/internal/domain/entity"
	"medminion/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// DoctorResolver turns a boundary doctor reference into a canonical id. Fuzzy name
// matching lives only here; everything past the resolver works on ids.
type DoctorResolver interface {
	Resolve(ctx context.Context, ref entity.DoctorRef) (entity.DoctorRef, error)
	// Forget drops cached name resolutions, e.g. after a doctor was added
	Forget()
}

type doctorResolver struct {
	log          *logrus.Logger
	scheduleRepo repository.DoctorScheduleRepository
	names        *cache.Cache
}

func NewDoctorResolver(log *logrus.Logger, scheduleRepo repository.DoctorScheduleRepository, ttl time.Duration) DoctorResolver {
	return &doctorResolver{
		log:          log,
		scheduleRepo: scheduleRepo,
		names:        cache.New(ttl, 2*ttl),
	}
}

// NamePattern builds the case-insensitive match pattern for a doctor name. The name is
// trimmed and used as a regular expression, or literally when it does not compile.
// An empty name has no pattern.
func NamePattern(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if _, err := regexp.Compile(name); err != nil {
		return regexp.QuoteMeta(name), true
	}
	return name, true
}

func (r *doctorResolver) Resolve(ctx context.Context, ref entity.DoctorRef) (entity.DoctorRef, error) {
	if ref.ID != uuid.Nil {
		schedule, err := r.scheduleRepo.FindByDoctorID(ctx, ref.ID)
		if err != nil {
			r.log.Warnf("Failed to find schedule for doctor %s: %+v", ref.ID, err)
			return entity.DoctorRef{}, storeError("find schedule", err)
		}
		if schedule == nil {
			return entity.DoctorRef{}, ErrDoctorNotFound
		}
		return entity.DoctorRef{ID: schedule.DoctorID, Name: schedule.DoctorName}, nil
	}

	pattern, ok := NamePattern(ref.Name)
	if !ok {
		return entity.DoctorRef{}, ErrDoctorNotFound
	}
	if cached, found := r.names.Get(pattern); found {
		return cached.(entity.DoctorRef), nil
	}

	schedule, err := r.scheduleRepo.FindByNamePattern(ctx, pattern)
	if err != nil {
		r.log.Warnf("Failed to match doctor name %q: %+v", ref.Name, err)
		return entity.DoctorRef{}, storeError("match doctor name", err)
	}
	if schedule == nil {
		return entity.DoctorRef{}, ErrDoctorNotFound
	}

	resolved := entity.DoctorRef{ID: schedule.DoctorID, Name: schedule.DoctorName}
	r.names.SetDefault(pattern, resolved)
	return resolved, nil
}

func (r *doctorResolver) Forget() {
	r.names.Flush()
}
