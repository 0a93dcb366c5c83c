package donation

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/category"
	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/events"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/filestorage/filestoragetest"
	"wecare_donations_backend/internal/shared"
)

func twoImages(t *testing.T) []*multipart.FileHeader {
	return []*multipart.FileHeader{
		filestoragetest.NewFileHeader(t, "images", "front.jpg", "jpeg-bytes", "image/jpeg"),
		filestoragetest.NewFileHeader(t, "images", "back.png", "png-bytes", "image/png"),
	}
}

func TestCreateDonation_Success(t *testing.T) {
	f := newFixture(t)

	d, err := f.service.CreateDonation(context.Background(), principalOf(f.donor), f.validRequest(), twoImages(t))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, d.Status)
	assert.Equal(t, f.donor.ID, d.UserID)
	assert.Nil(t, d.ReceiverID)
	assert.Equal(t, 2, f.store.Len())
	assert.Equal(t, []events.Type{events.DonationCreated}, f.publisher.types())

	loaded, err := f.repo.FindByID(context.Background(), d.ID, true)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 2)
	assert.Equal(t, 0, loaded.Images[0].SortOrder)
	assert.Equal(t, 1, loaded.Images[1].SortOrder)
}

func TestCreateDonation_SanitizesText(t *testing.T) {
	f := newFixture(t)
	req := f.validRequest()
	req.Title = "<b>Winter</b> coat<script>alert(1)</script>"

	d, err := f.service.CreateDonation(context.Background(), principalOf(f.donor), req, twoImages(t))
	require.NoError(t, err)
	assert.Equal(t, "Winter coat", d.Title)
}

func TestCreateDonation_RoleIsChecked(t *testing.T) {
	f := newFixture(t)
	for _, u := range []shared.Principal{principalOf(f.receiver), principalOf(f.admin), {UserID: uuid.New(), Role: shared.Role(42)}} {
		_, err := f.service.CreateDonation(context.Background(), u, f.validRequest(), twoImages(t))
		assert.True(t, errors.Is(err, common.ErrForbidden), "role %v", u.Role)
	}
	assert.Zero(t, f.store.Len(), "nothing is stored when authorization fails")
	assert.Empty(t, f.publisher.types())
}

func TestCreateDonation_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	oversized := filestoragetest.NewFileHeader(t, "images", "big.jpg", string(make([]byte, 2<<20)), "image/jpeg")
	notImage := filestoragetest.NewFileHeader(t, "images", "notes.txt", "plain text", "text/plain")

	tests := []struct {
		name   string
		mutate func(*CreateDonationRequest)
		images []*multipart.FileHeader
	}{
		{name: "no images", images: nil},
		{name: "too many images", images: append(append(twoImages(t), twoImages(t)...), twoImages(t)...)},
		{name: "oversized image", images: []*multipart.FileHeader{oversized}},
		{name: "non-image file", images: []*multipart.FileHeader{notImage}},
		{name: "unknown category", mutate: func(r *CreateDonationRequest) { r.CategoryID = uuid.NewString() }, images: twoImages(t)},
		{name: "latitude without longitude", mutate: func(r *CreateDonationRequest) { r.Longitude = nil }, images: twoImages(t)},
		{name: "longitude without latitude", mutate: func(r *CreateDonationRequest) { r.Latitude = nil }, images: twoImages(t)},
		{name: "no coordinates", mutate: func(r *CreateDonationRequest) { r.Latitude, r.Longitude = nil, nil }, images: twoImages(t)},
		{name: "blank title after sanitizing", mutate: func(r *CreateDonationRequest) { r.Title = "<p></p>" }, images: twoImages(t)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := f.validRequest()
			if tc.mutate != nil {
				tc.mutate(&req)
			}
			_, err := f.service.CreateDonation(context.Background(), principalOf(f.donor), req, tc.images)
			assert.True(t, errors.Is(err, common.ErrValidation), "got %v", err)
		})
	}
	assert.Zero(t, f.store.Len())
}

func TestCreateDonation_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailSave = true

	_, err := f.service.CreateDonation(context.Background(), principalOf(f.donor), f.validRequest(), twoImages(t))
	assert.True(t, errors.Is(err, common.ErrStorage))
}

func TestCreateDonation_RemovesFilesWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	svc := NewService(failingCreateRepo{f.repo}, category.NewGORMRepository(f.db), f.store,
		filestorage.ImageRules{MaxCount: 5, MaxBytes: 1 << 20}, f.publisher, nil, zap.NewNop())

	_, err := svc.CreateDonation(context.Background(), principalOf(f.donor), f.validRequest(), twoImages(t))
	require.Error(t, err)
	assert.Zero(t, f.store.Len())
	assert.Len(t, f.store.Deleted, 2)
	assert.Empty(t, f.publisher.types())
}

func TestAcceptDonation(t *testing.T) {
	f := newFixture(t)
	d := f.seedDonation(t, f.donor, StatusPending, nil, nil)

	_, err := f.service.AcceptDonation(context.Background(), principalOf(f.donor), d.ID)
	assert.True(t, errors.Is(err, common.ErrForbidden), "donors cannot accept")
	_, err = f.service.AcceptDonation(context.Background(), principalOf(f.admin), d.ID)
	assert.True(t, errors.Is(err, common.ErrForbidden), "admins cannot accept")

	accepted, err := f.service.AcceptDonation(context.Background(), principalOf(f.receiver), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
	assert.Equal(t, f.receiver.ID, *accepted.ReceiverID)

	_, err = f.service.AcceptDonation(context.Background(), principalOf(f.receiver), d.ID)
	assert.True(t, errors.Is(err, common.ErrInvalidState))

	_, err = f.service.AcceptDonation(context.Background(), principalOf(f.receiver), uuid.New())
	assert.True(t, errors.Is(err, common.ErrNotFound))

	require.Equal(t, []events.Type{events.DonationAccepted}, f.publisher.types())
	assert.Equal(t, f.receiver.ID, *f.publisher.events[0].ReceiverID)
}

func TestCompleteDonation(t *testing.T) {
	f := newFixture(t)
	d := f.seedDonation(t, f.donor, StatusPending, nil, nil)

	_, err := f.service.CompleteDonation(context.Background(), principalOf(f.donor), d.ID)
	assert.True(t, errors.Is(err, common.ErrInvalidState), "pending donations cannot be completed")

	_, err = f.service.AcceptDonation(context.Background(), principalOf(f.receiver), d.ID)
	require.NoError(t, err)

	_, err = f.service.CompleteDonation(context.Background(), principalOf(f.other), d.ID)
	assert.True(t, errors.Is(err, common.ErrForbidden))
	_, err = f.service.CompleteDonation(context.Background(), principalOf(f.receiver), d.ID)
	assert.True(t, errors.Is(err, common.ErrForbidden), "the receiver does not own the donation")

	completed, err := f.service.CompleteDonation(context.Background(), principalOf(f.donor), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	_, err = f.service.CompleteDonation(context.Background(), principalOf(f.admin), uuid.New())
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestCompleteDonation_AdminMayComplete(t *testing.T) {
	f := newFixture(t)
	d := f.seedDonation(t, f.donor, StatusPending, nil, nil)
	_, err := f.service.AcceptDonation(context.Background(), principalOf(f.receiver), d.ID)
	require.NoError(t, err)

	completed, err := f.service.CompleteDonation(context.Background(), principalOf(f.admin), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
}

func TestDeleteDonation(t *testing.T) {
	f := newFixture(t)
	d, err := f.service.CreateDonation(context.Background(), principalOf(f.donor), f.validRequest(), twoImages(t))
	require.NoError(t, err)

	err = f.service.DeleteDonation(context.Background(), principalOf(f.receiver), d.ID)
	assert.True(t, errors.Is(err, common.ErrForbidden))
	err = f.service.DeleteDonation(context.Background(), principalOf(f.other), d.ID)
	assert.True(t, errors.Is(err, common.ErrForbidden))

	require.NoError(t, f.service.DeleteDonation(context.Background(), principalOf(f.donor), d.ID))
	assert.Zero(t, f.store.Len(), "stored images are removed")

	_, err = f.service.GetDonation(context.Background(), d.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.True(t, errors.Is(f.service.DeleteDonation(context.Background(), principalOf(f.donor), d.ID), common.ErrNotFound))
	assert.Equal(t, []events.Type{events.DonationCreated, events.DonationDeleted}, f.publisher.types())
}

func TestDeleteDonation_AdminAnyStatus(t *testing.T) {
	f := newFixture(t)
	d := f.seedDonation(t, f.donor, StatusCompleted, nil, nil)
	require.NoError(t, f.service.DeleteDonation(context.Background(), principalOf(f.admin), d.ID))
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker unavailable")
	d := f.seedDonation(t, f.donor, StatusPending, nil, nil)

	accepted, err := f.service.AcceptDonation(context.Background(), principalOf(f.receiver), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
}

func TestListByUser_SelfOrAdmin(t *testing.T) {
	f := newFixture(t)
	f.seedDonation(t, f.donor, StatusPending, nil, nil)
	f.seedDonation(t, f.donor, StatusCompleted, nil, nil)
	pq := common.PaginationQuery{Page: 1, PageSize: 10}

	mine, pagination, err := f.service.ListByUser(context.Background(), principalOf(f.donor), f.donor.ID, pq)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.EqualValues(t, 2, pagination.TotalItems)

	_, _, err = f.service.ListByUser(context.Background(), principalOf(f.admin), f.donor.ID, pq)
	assert.NoError(t, err)

	_, _, err = f.service.ListByUser(context.Background(), principalOf(f.other), f.donor.ID, pq)
	assert.True(t, errors.Is(err, common.ErrForbidden))
}

func TestListPendingAndByCategory(t *testing.T) {
	f := newFixture(t)
	f.seedDonation(t, f.donor, StatusPending, nil, nil)
	f.seedDonation(t, f.donor, StatusAccepted, nil, nil)
	pq := common.PaginationQuery{Page: 1, PageSize: 10}

	pending, _, err := f.service.ListPending(context.Background(), pq)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, StatusPending, pending[0].Status)

	byCategory, _, err := f.service.ListByCategory(context.Background(), f.category.ID, pq)
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	empty, _, err := f.service.ListByCategory(context.Background(), uuid.New(), pq)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	pq := common.PaginationQuery{Page: 1, PageSize: 10}

	_, _, err := f.service.Search(context.Background(), SearchQuery{Text: "coat"}, pq)
	assert.True(t, errors.Is(err, common.ErrServiceUnavailable), "search without an index is unavailable")

	a := f.seedDonation(t, f.donor, StatusPending, nil, nil)
	b := f.seedDonation(t, f.donor, StatusPending, nil, nil)
	f.service.searcher = fakeSearcher{ids: []uuid.UUID{b.ID, a.ID}, total: 2}

	got, pagination, err := f.service.Search(context.Background(), SearchQuery{Text: "coat"}, pq)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.EqualValues(t, 2, pagination.TotalItems)

	_, _, err = f.service.Search(context.Background(), SearchQuery{CategoryID: "nope"}, pq)
	assert.True(t, errors.Is(err, common.ErrValidation))

	f.service.searcher = fakeSearcher{err: errors.New("cluster red")}
	_, _, err = f.service.Search(context.Background(), SearchQuery{Text: "coat"}, pq)
	assert.True(t, errors.Is(err, common.ErrServiceUnavailable))
}
