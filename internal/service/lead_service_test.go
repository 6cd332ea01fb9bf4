package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/modulbox/leadform-backend/internal/repository"
	"github.com/modulbox/leadform-backend/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type unreachableStore struct{}

func (unreachableStore) Name() string { return "s3" }

func (unreachableStore) Upload(context.Context, string, io.Reader, string, int64) (*storage.UploadResult, error) {
	return nil, errors.New("bucket unreachable")
}

func (unreachableStore) Delete(context.Context, string) error { return nil }

type leadFixture struct {
	svc      *LeadService
	drafts   *DraftService
	leads    repository.LeadRepository
	notifier *MockNotifier
}

func newLeadFixture(t *testing.T) *leadFixture {
	t.Helper()
	db := setupTestDB(t)
	compressor := budget.NewCompressor(nil)
	drafts := NewDraftService(repository.NewDraftRepository(db), setupStaging(t), compressor, NewDraftQueue(), 72*time.Hour)

	media := storage.NewFallbackStore(unreachableStore{}, setupStaging(t))
	leads := repository.NewLeadRepository(db)
	notifier := &MockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	return &leadFixture{
		svc:      NewLeadService(leads, drafts, media, NewFormValidator(), compressor, notifier),
		drafts:   drafts,
		leads:    leads,
		notifier: notifier,
	}
}

func part(field string, size int64) FilePart {
	return FilePart{Field: field, File: jpegFile(field+".jpg", size)}
}

func TestSubmitOneShot_StoresLeadAndImages(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()

	resp, err := f.svc.SubmitOneShot(ctx, validForm(), []FilePart{
		part("models[1].images[2]", 3000),
		part("logo", 1000),
		part("clients[0].logo", 500),
	}, "10.0.0.9")
	require.NoError(t, err)

	assert.NotZero(t, resp.LeadID)
	assert.Equal(t, 3, resp.ImageCount)
	assert.Equal(t, int64(4500), resp.ImageBytes)
	require.Len(t, resp.Images, 3)
	assert.Equal(t, "clients[0].logo", resp.Images[0].Field)
	assert.Equal(t, "logo", resp.Images[1].Field)
	assert.Equal(t, "models[1].images[2]", resp.Images[2].Field)
	for _, img := range resp.Images {
		assert.Equal(t, "local", img.Storage)
	}

	stored, err := f.svc.GetLead(ctx, resp.LeadID)
	require.NoError(t, err)
	assert.Equal(t, "Box Homes Ltd", stored.CompanyName)
	assert.Equal(t, 2, stored.ModelCount)
	assert.Len(t, stored.Images, 3)
	assert.Contains(t, stored.FormJSON, `"currency":"GBP"`)

	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestSubmitOneShot_RepeatedFieldReplaces(t *testing.T) {
	f := newLeadFixture(t)

	resp, err := f.svc.SubmitOneShot(context.Background(), validForm(), []FilePart{
		part("logo", 1000),
		part("logo", 200),
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ImageCount)
	assert.Equal(t, int64(200), resp.ImageBytes)
}

func TestSubmitOneShot_AggregateBudget(t *testing.T) {
	f := newLeadFixture(t)
	big := bytes.Repeat([]byte{1}, int(budget.MaxFileBytes))

	parts := make([]FilePart, 0, 5)
	for i := 0; i < 4; i++ {
		parts = append(parts, FilePart{
			Field: (budget.SlotKey{Entity: budget.EntityModel, Row: 0, Position: i}).FieldName(),
			File:  budget.IncomingFile{Name: "m.jpg", ContentType: "image/jpeg", Data: big},
		})
	}
	parts = append(parts, FilePart{
		Field: "logo",
		File:  budget.IncomingFile{Name: "logo.jpg", ContentType: "image/jpeg", Data: big[:6*budget.MiB]},
	})

	_, err := f.svc.SubmitOneShot(context.Background(), validForm(), parts, "")

	var budgetErr *budget.PayloadBudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, 5*budget.MiB, budgetErr.Remaining)
	assert.Contains(t, err.Error(), "logo")

	list, err := f.svc.ListLeads(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Total)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSubmitOneShot_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		parts   []FilePart
		wantErr error
	}{
		{"orphaned project image", []FilePart{part("projects[1].images[0]", 10)}, common.ErrOrphanedImage},
		{"orphaned model image", []FilePart{part("models[3].images[0]", 10)}, common.ErrOrphanedImage},
		{"unknown field", []FilePart{part("avatar", 10)}, common.ErrInvalidSlot},
		{"slot out of range", []FilePart{part("models[0].images[4]", 10)}, common.ErrInvalidSlot},
		{"not an image", []FilePart{{Field: "logo", File: budget.IncomingFile{Name: "a.txt", ContentType: "text/plain", Data: []byte("hi")}}}, budget.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLeadFixture(t)
			_, err := f.svc.SubmitOneShot(context.Background(), validForm(), tt.parts, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmitOneShot_InvalidForm(t *testing.T) {
	f := newLeadFixture(t)
	form := validForm()
	form.Company.CompanyName = ""

	_, err := f.svc.SubmitOneShot(context.Background(), form, nil, "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "company.company_name")
}

func TestSubmitDraft_UsesStagedImages(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()

	draft, err := f.drafts.Create(ctx, "")
	require.NoError(t, err)
	_, err = f.drafts.AttachImage(ctx, draft.ID, budget.SlotKey{Entity: budget.EntityLogo}, jpegFile("logo.jpg", 800))
	require.NoError(t, err)
	_, err = f.drafts.AttachImage(ctx, draft.ID, budget.SlotKey{Entity: budget.EntityProject, Row: 0, Position: 3}, jpegFile("site.jpg", 1200))
	require.NoError(t, err)

	resp, err := f.svc.SubmitDraft(ctx, draft.ID, validForm(), "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ImageCount)
	assert.Equal(t, int64(2000), resp.ImageBytes)

	lead, err := f.svc.GetLead(ctx, resp.LeadID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, lead.DraftID)

	_, err = f.svc.SubmitDraft(ctx, draft.ID, validForm(), "")
	assert.ErrorIs(t, err, common.ErrDraftClosed)
}

func TestSubmitDraft_OrphanKeepsDraftOpen(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()

	draft, _ := f.drafts.Create(ctx, "")
	_, err := f.drafts.AttachImage(ctx, draft.ID, budget.SlotKey{Entity: budget.EntityModel, Row: 3, Position: 0}, jpegFile("m.jpg", 100))
	require.NoError(t, err)

	_, err = f.svc.SubmitDraft(ctx, draft.ID, validForm(), "")
	assert.ErrorIs(t, err, common.ErrOrphanedImage)

	got, err := f.drafts.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DraftOpen, got.Status)
}

func TestListLeadsAndGetLead(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.SubmitOneShot(ctx, validForm(), nil, "")
		require.NoError(t, err)
	}

	list, err := f.svc.ListLeads(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Len(t, list.Items, 2)
	assert.Greater(t, list.Items[0].ID, list.Items[1].ID)

	list, err = f.svc.ListLeads(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Limit)

	_, err = f.svc.GetLead(ctx, 9999)
	assert.ErrorIs(t, err, common.ErrLeadNotFound)
}

type flakyMedia struct {
	failAfter int
	uploads   int
	removed   []string
}

func (m *flakyMedia) UploadBytes(_ context.Context, key string, _ []byte, _ string) (*storage.UploadResult, error) {
	if m.uploads == m.failAfter {
		return nil, errors.New("bucket unreachable")
	}
	m.uploads++
	return &storage.UploadResult{Storage: "s3", Key: key}, nil
}

func (m *flakyMedia) Remove(_ context.Context, result *storage.UploadResult) error {
	m.removed = append(m.removed, result.Key)
	return nil
}

type brokenLeadRepo struct{ repository.LeadRepository }

func (brokenLeadRepo) Create(*domain.Lead) error { return errors.New("deadlock found") }

func newFlakyLeadService(t *testing.T, leads repository.LeadRepository, media *flakyMedia) *LeadService {
	t.Helper()
	db := setupTestDB(t)
	compressor := budget.NewCompressor(nil)
	drafts := NewDraftService(repository.NewDraftRepository(db), setupStaging(t), compressor, NewDraftQueue(), 72*time.Hour)
	if leads == nil {
		leads = repository.NewLeadRepository(db)
	}
	return NewLeadService(leads, drafts, media, NewFormValidator(), compressor, nil)
}

func TestSubmitOneShot_UploadFailureRemovesEarlierImages(t *testing.T) {
	media := &flakyMedia{failAfter: 2}
	svc := newFlakyLeadService(t, nil, media)

	_, err := svc.SubmitOneShot(context.Background(), validForm(), []FilePart{
		part("logo", 1000),
		part("models[0].images[0]", 1000),
		part("models[0].images[1]", 1000),
	}, "")
	require.Error(t, err)
	assert.Equal(t, 2, media.uploads)
	assert.Len(t, media.removed, 2)
}

func TestSubmitOneShot_SaveFailureRemovesImages(t *testing.T) {
	media := &flakyMedia{failAfter: -1}
	svc := newFlakyLeadService(t, brokenLeadRepo{}, media)

	_, err := svc.SubmitOneShot(context.Background(), validForm(), []FilePart{
		part("logo", 1000),
		part("models[0].images[0]", 1000),
	}, "")
	require.Error(t, err)
	assert.Equal(t, 2, media.uploads)
	assert.Len(t, media.removed, 2)
}
