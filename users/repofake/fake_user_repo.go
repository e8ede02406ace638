package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/bigmini/auth-service/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type linkKey struct {
	providerID int64
	subjectID  string
}

// FakeUserRepo is an in-memory users.Repo. The single lock gives it the same
// conditional-write guarantees the Postgres implementation gets from unique
// constraints and single-statement updates.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	links    map[linkKey]string
	lock     sync.Mutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
		links:    make(map[linkKey]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.Email != "" {
		if _, ok := ur.emailIds[user.Email]; ok {
			return users.ErrEmailTaken
		}
	}
	ur.insertLocked(user)
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *ur.users[id]
	return &cp, nil
}

func (ur *FakeUserRepo) SetVerified(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	if user.Verified {
		return users.ErrAlreadyVerified
	}
	user.Verified = true
	return nil
}

func (ur *FakeUserRepo) BumpGeneration(_ context.Context, id string) (int64, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return 0, users.ErrNotFound
	}
	user.Generation++
	return user.Generation, nil
}

func (ur *FakeUserRepo) GetByProviderLink(_ context.Context, providerID int64, subjectID string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.links[linkKey{providerID, subjectID}]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *ur.users[id]
	return &cp, nil
}

func (ur *FakeUserRepo) CreateWithLink(_ context.Context, user *users.User, providerID int64, subjectID string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	key := linkKey{providerID, subjectID}
	if _, ok := ur.links[key]; ok {
		return users.ErrLinkTaken
	}
	if user.Email != "" {
		if _, ok := ur.emailIds[user.Email]; ok {
			return users.ErrEmailTaken
		}
	}
	ur.insertLocked(user)
	ur.links[key] = user.ID
	return nil
}

func (ur *FakeUserRepo) insertLocked(user *users.User) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	cp := *user
	ur.users[cp.ID] = &cp
	if cp.Email != "" {
		ur.emailIds[cp.Email] = cp.ID
	}
}
