package donation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wecare_donations_backend/internal/category"
	"wecare_donations_backend/internal/events"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/filestorage/filestoragetest"
	"wecare_donations_backend/internal/platform/database/dbtest"
	"wecare_donations_backend/internal/shared"
	"wecare_donations_backend/internal/user"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	repo      Repository
	store     *filestoragetest.MemoryStore
	publisher *recordingPublisher
	service   *ServiceImplementation

	donor    *user.User
	other    *user.User
	receiver *user.User
	admin    *user.User
	category *category.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &user.User{}, &category.Category{}, &Donation{}, &DonationImage{})

	f := &fixture{
		db:        db,
		repo:      NewGORMRepository(db),
		store:     filestoragetest.NewMemoryStore(),
		publisher: &recordingPublisher{},
	}
	categoryRepo := category.NewGORMRepository(db)
	f.service = NewService(f.repo, categoryRepo, f.store,
		filestorage.ImageRules{MaxCount: 5, MaxBytes: 1 << 20}, f.publisher, nil, zap.NewNop())

	f.donor = seedUser(t, db, "Dana Donor", shared.RoleDonor)
	f.other = seedUser(t, db, "Oscar Other", shared.RoleDonor)
	f.receiver = seedUser(t, db, "Rita Receiver", shared.RoleReceiver)
	f.admin = seedUser(t, db, "Ada Admin", shared.RoleAdmin)

	icon := "shirt-outline"
	f.category = &category.Category{Name: "Clothing", Slug: "clothing", Icon: &icon}
	require.NoError(t, categoryRepo.CreateCategory(context.Background(), f.category))
	return f
}

func seedUser(t *testing.T, db *gorm.DB, name string, role shared.Role) *user.User {
	t.Helper()
	phone := "+15550100"
	u := &user.User{
		Name:         name,
		Email:        uuid.NewString() + "@example.com",
		Phone:        &phone,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func principalOf(u *user.User) shared.Principal {
	return shared.Principal{UserID: u.ID, Role: u.Role}
}

// seedDonation inserts a donation directly through the repository. Nil
// coordinates fall back to central Paris.
func (f *fixture) seedDonation(t *testing.T, owner *user.User, status Status, lat, lon *float64) *Donation {
	t.Helper()
	if lat == nil {
		v := 48.8566
		lat = &v
	}
	if lon == nil {
		v := 2.3522
		lon = &v
	}
	d := &Donation{
		Title:       "Winter coat",
		Description: "Warm, size M",
		CategoryID:  f.category.ID,
		UserID:      owner.ID,
		Status:      status,
		Latitude:    lat,
		Longitude:   lon,
		Images:      []DonationImage{{ImagePath: "donations/" + uuid.NewString() + ".jpg"}},
	}
	require.NoError(t, f.repo.Create(context.Background(), d))
	return d
}

func (f *fixture) validRequest() CreateDonationRequest {
	lat, lon := 48.8566, 2.3522
	return CreateDonationRequest{
		Title:       "Winter coat",
		Description: "Warm, size M",
		CategoryID:  f.category.ID.String(),
		Latitude:    &lat,
		Longitude:   &lon,
	}
}

// failingCreateRepo makes Create fail after validation has passed.
type failingCreateRepo struct {
	Repository
}

func (failingCreateRepo) Create(context.Context, *Donation) error {
	return errors.New("disk full")
}

type fakeSearcher struct {
	ids   []uuid.UUID
	total int64
	err   error
}

func (s fakeSearcher) SearchPending(context.Context, string, *uuid.UUID, int, int) ([]uuid.UUID, int64, error) {
	return s.ids, s.total, s.err
}
