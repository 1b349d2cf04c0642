package memory

import (
	"context"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"
)

type UserRepository struct {
	b base
}

var _ repo.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	return r.b.write(func(st *state) error {
		for _, u := range st.users {
			if u.Username == user.Username || u.Email == user.Email {
				return repo.ErrConflict
			}
		}
		st.nextUserID++
		user.ID = st.nextUserID
		user.CreatedAt = r.b.s.now()
		st.users[user.ID] = *user
		return nil
	})
}

func (r *UserRepository) FindByID(_ context.Context, userID int64) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == userID })
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *UserRepository) find(match func(model.User) bool) (*model.User, error) {
	var out *model.User
	err := r.b.read(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				clone := u
				out = &clone
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}
