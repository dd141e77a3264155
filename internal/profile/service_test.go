package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/magictales/backend/internal/apperror"
)

// --- Mock Repository ---

// mockProfileRepo implements ProfileRepository for testing.
type mockProfileRepo struct {
	createFn          func(ctx context.Context, p *Profile) error
	findAllByUserFn   func(ctx context.Context, userID int64) ([]Profile, error)
	findByIDForUserFn func(ctx context.Context, id, userID int64) (*Profile, error)
}

func (m *mockProfileRepo) Create(ctx context.Context, p *Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	p.ID = 1
	return nil
}

func (m *mockProfileRepo) FindAllByUser(ctx context.Context, userID int64) ([]Profile, error) {
	if m.findAllByUserFn != nil {
		return m.findAllByUserFn(ctx, userID)
	}
	return []Profile{}, nil
}

func (m *mockProfileRepo) FindByIDForUser(ctx context.Context, id, userID int64) (*Profile, error) {
	if m.findByIDForUserFn != nil {
		return m.findByIDForUserFn(ctx, id, userID)
	}
	return nil, apperror.NewNotFound("Profile not found")
}

// --- Mock File Store ---

// mockStore implements storage.Store for testing.
type mockStore struct {
	saveImageFn   func(folder string, id int64, data []byte) error
	imagePathFn   func(folder string, id int64) (string, error)
	imageBase64Fn func(folder string, id int64) string
	storyFileFn   func(storyFolder string) (string, error)
}

func (m *mockStore) SaveImage(folder string, id int64, data []byte) error {
	if m.saveImageFn != nil {
		return m.saveImageFn(folder, id, data)
	}
	return nil
}

func (m *mockStore) ImagePath(folder string, id int64) (string, error) {
	if m.imagePathFn != nil {
		return m.imagePathFn(folder, id)
	}
	return "", apperror.NewNotFound("Image not found")
}

func (m *mockStore) ImageBase64(folder string, id int64) string {
	if m.imageBase64Fn != nil {
		return m.imageBase64Fn(folder, id)
	}
	return ""
}

func (m *mockStore) StoryFile(storyFolder string) (string, error) {
	if m.storyFileFn != nil {
		return m.storyFileFn(storyFolder)
	}
	return "", apperror.NewNotFound("Story file not found")
}

// --- Test Helpers ---

// passTx runs units of work directly on the caller's context.
type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- ListProfiles Tests ---

func TestListProfiles_ScopedToOwner(t *testing.T) {
	repo := &mockProfileRepo{
		findAllByUserFn: func(ctx context.Context, userID int64) ([]Profile, error) {
			if userID != 42 {
				t.Errorf("expected lookup for user 42, got %d", userID)
			}
			return []Profile{{ID: 1, UserID: 42, Details: "Maya, age 6"}}, nil
		},
	}
	svc := NewProfileService(repo, &mockStore{}, passTx{})

	profiles, err := svc.ListProfiles(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Details != "Maya, age 6" {
		t.Errorf("unexpected profiles %+v", profiles)
	}
}

func TestListProfiles_EmptyIsNotAnError(t *testing.T) {
	svc := NewProfileService(&mockProfileRepo{}, &mockStore{}, passTx{})

	profiles, err := svc.ListProfiles(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles == nil || len(profiles) != 0 {
		t.Errorf("expected empty list, got %v", profiles)
	}
}

func TestListProfiles_RepoError(t *testing.T) {
	repo := &mockProfileRepo{
		findAllByUserFn: func(ctx context.Context, userID int64) ([]Profile, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc := NewProfileService(repo, &mockStore{}, passTx{})

	_, err := svc.ListProfiles(context.Background(), 42)
	assertAppError(t, err, 500)
}

// --- GetProfile Tests ---

func TestGetProfile_Success(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDForUserFn: func(ctx context.Context, id, userID int64) (*Profile, error) {
			if id != 5 || userID != 42 {
				t.Errorf("expected lookup (5, 42), got (%d, %d)", id, userID)
			}
			return &Profile{ID: 5, UserID: 42, Details: "Maya, age 6"}, nil
		},
	}
	svc := NewProfileService(repo, &mockStore{}, passTx{})

	p, err := svc.GetProfile(context.Background(), 5, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 5 {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestGetProfile_ForeignProfileIsNotFound(t *testing.T) {
	svc := NewProfileService(&mockProfileRepo{}, &mockStore{}, passTx{})

	_, err := svc.GetProfile(context.Background(), 5, 42)
	assertAppError(t, err, 404)
}

// --- CreateProfile Tests ---

func TestCreateProfile_OwnerFromToken(t *testing.T) {
	var created *Profile
	repo := &mockProfileRepo{
		createFn: func(ctx context.Context, p *Profile) error {
			p.ID = 9
			created = p
			return nil
		},
	}
	svc := NewProfileService(repo, &mockStore{}, passTx{})

	p, err := svc.CreateProfile(context.Background(), 42, "Maya, age 6, loves dragons")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 9 {
		t.Errorf("expected assigned id 9, got %d", p.ID)
	}
	if created == nil || created.UserID != 42 {
		t.Errorf("expected owner 42 from token, got %+v", created)
	}
	if created.Details != "Maya, age 6, loves dragons" {
		t.Errorf("unexpected details %q", created.Details)
	}
}

func TestCreateProfile_RepoError(t *testing.T) {
	repo := &mockProfileRepo{
		createFn: func(ctx context.Context, p *Profile) error {
			return errors.New("connection reset")
		},
	}
	svc := NewProfileService(repo, &mockStore{}, passTx{})

	_, err := svc.CreateProfile(context.Background(), 42, "details")
	assertAppError(t, err, 500)
}

// --- SaveImage Tests ---

func TestSaveImage_ChecksOwnershipFirst(t *testing.T) {
	store := &mockStore{
		saveImageFn: func(folder string, id int64, data []byte) error {
			t.Error("a foreign profile must not reach the file store")
			return nil
		},
	}
	svc := NewProfileService(&mockProfileRepo{}, store, passTx{})

	err := svc.SaveImage(context.Background(), 5, 42, []byte("png-bytes"))
	assertAppError(t, err, 404)
}

func TestSaveImage_Success(t *testing.T) {
	var savedFolder string
	var savedID int64
	repo := &mockProfileRepo{
		findByIDForUserFn: func(ctx context.Context, id, userID int64) (*Profile, error) {
			return &Profile{ID: id, UserID: userID}, nil
		},
	}
	store := &mockStore{
		saveImageFn: func(folder string, id int64, data []byte) error {
			savedFolder = folder
			savedID = id
			return nil
		},
	}
	svc := NewProfileService(repo, store, passTx{})

	if err := svc.SaveImage(context.Background(), 5, 42, []byte("png-bytes")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if savedFolder != "profiles" || savedID != 5 {
		t.Errorf("expected save under profiles/5, got %s/%d", savedFolder, savedID)
	}
}

func TestSaveImage_RejectedUpload(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDForUserFn: func(ctx context.Context, id, userID int64) (*Profile, error) {
			return &Profile{ID: id, UserID: userID}, nil
		},
	}
	store := &mockStore{
		saveImageFn: func(folder string, id int64, data []byte) error {
			return apperror.NewBadRequest("file content is not a supported image")
		},
	}
	svc := NewProfileService(repo, store, passTx{})

	err := svc.SaveImage(context.Background(), 5, 42, []byte("not an image"))
	assertAppError(t, err, 400)
}

// --- ImagePath Tests ---

func TestImagePath_Success(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDForUserFn: func(ctx context.Context, id, userID int64) (*Profile, error) {
			return &Profile{ID: id, UserID: userID}, nil
		},
	}
	store := &mockStore{
		imagePathFn: func(folder string, id int64) (string, error) {
			return "/static/profiles/5.png", nil
		},
	}
	svc := NewProfileService(repo, store, passTx{})

	path, err := svc.ImagePath(context.Background(), 5, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/static/profiles/5.png" {
		t.Errorf("unexpected path %q", path)
	}
}

func TestImagePath_MissingImage(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDForUserFn: func(ctx context.Context, id, userID int64) (*Profile, error) {
			return &Profile{ID: id, UserID: userID}, nil
		},
	}
	svc := NewProfileService(repo, &mockStore{}, passTx{})

	_, err := svc.ImagePath(context.Background(), 5, 42)
	assertAppError(t, err, 404)
}

func TestImagePath_ForeignProfileIsNotFound(t *testing.T) {
	store := &mockStore{
		imagePathFn: func(folder string, id int64) (string, error) {
			t.Error("a foreign profile must not reach the file store")
			return "", nil
		},
	}
	svc := NewProfileService(&mockProfileRepo{}, store, passTx{})

	_, err := svc.ImagePath(context.Background(), 5, 42)
	assertAppError(t, err, 404)
}
