package boltdb

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

// voterRecord is the stored form of a voter. domain.Voter hides the password
// hash from JSON, so it cannot be persisted as is.
type voterRecord struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	NationalID   *string    `json:"national_id,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Verified     bool       `json:"verified"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toVoterRecord(v *domain.Voter) voterRecord {
	return voterRecord{
		ID:           v.ID,
		Username:     v.Username,
		FirstName:    v.FirstName,
		LastName:     v.LastName,
		Email:        v.Email,
		NationalID:   v.NationalID,
		Phone:        v.Phone,
		DateOfBirth:  v.DateOfBirth,
		Verified:     v.Verified,
		Role:         v.Role,
		PasswordHash: v.PasswordHash,
		CreatedAt:    v.CreatedAt,
	}
}

func (r voterRecord) voter() *domain.Voter {
	return &domain.Voter{
		ID:           r.ID,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		NationalID:   r.NationalID,
		Phone:        r.Phone,
		DateOfBirth:  r.DateOfBirth,
		Verified:     r.Verified,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type voterRepository struct {
	db *bolt.DB
}

func NewVoterRepository(db *bolt.DB) ports.VoterRepository {
	return &voterRepository{db: db}
}

func (r *voterRepository) Create(ctx context.Context, voter *domain.Voter) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return createVoter(tx, voter)
	})
}

// Register stores the voter and its verification token in one transaction.
func (r *voterRepository) Register(ctx context.Context, voter *domain.Voter, token domain.VerificationToken) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		if err := createVoter(tx, voter); err != nil {
			return err
		}
		return putJSON(tx.Bucket(bucketTokens), token.Token[:], token)
	})
}

// createVoter checks every unique index before writing the voter and its
// index entries.
func createVoter(tx *bolt.Tx, voter *domain.Voter) error {
	emails := tx.Bucket(bucketEmails)
	if emails.Get([]byte(voter.Email)) != nil {
		return domain.ErrEmailTaken
	}
	usernames := tx.Bucket(bucketUsernames)
	if usernames.Get([]byte(voter.Username)) != nil {
		return domain.ErrUsernameTaken
	}
	nationalIDs := tx.Bucket(bucketNationalIDs)
	if voter.NationalID != nil && nationalIDs.Get([]byte(*voter.NationalID)) != nil {
		return domain.ErrNationalIDTaken
	}
	phones := tx.Bucket(bucketPhones)
	if voter.Phone != nil && phones.Get([]byte(*voter.Phone)) != nil {
		return domain.ErrPhoneTaken
	}

	if err := putJSON(tx.Bucket(bucketVoters), voter.ID[:], toVoterRecord(voter)); err != nil {
		return err
	}
	if err := emails.Put([]byte(voter.Email), voter.ID[:]); err != nil {
		return err
	}
	if err := usernames.Put([]byte(voter.Username), voter.ID[:]); err != nil {
		return err
	}
	if voter.NationalID != nil {
		if err := nationalIDs.Put([]byte(*voter.NationalID), voter.ID[:]); err != nil {
			return err
		}
	}
	if voter.Phone != nil {
		return phones.Put([]byte(*voter.Phone), voter.ID[:])
	}
	return nil
}

func (r *voterRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error) {
	var rec voterRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketVoters), id[:], &rec, domain.ErrVoterNotFound)
	})
	if err != nil {
		return nil, err
	}
	return rec.voter(), nil
}

func (r *voterRepository) GetByEmail(ctx context.Context, email string) (*domain.Voter, error) {
	var rec voterRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketEmails).Get([]byte(email))
		if id == nil {
			return domain.ErrVoterNotFound
		}
		return getJSON(tx.Bucket(bucketVoters), id, &rec, domain.ErrVoterNotFound)
	})
	if err != nil {
		return nil, err
	}
	return rec.voter(), nil
}

func (r *voterRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(bucketEmails, email)
}

func (r *voterRepository) NationalIDTaken(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(bucketNationalIDs, nationalID)
}

func (r *voterRepository) exists(bucket []byte, key string) (bool, error) {
	var found bool
	err := r.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucket).Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

func (r *voterRepository) UpdateProfile(ctx context.Context, id uuid.UUID, phone *string, dob *time.Time) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketVoters)
		var rec voterRecord
		if err := getJSON(bucket, id[:], &rec, domain.ErrVoterNotFound); err != nil {
			return err
		}

		if phone != nil && (rec.Phone == nil || *rec.Phone != *phone) {
			phones := tx.Bucket(bucketPhones)
			if owner := phones.Get([]byte(*phone)); owner != nil && !bytes.Equal(owner, id[:]) {
				return domain.ErrPhoneTaken
			}
			if rec.Phone != nil {
				if err := phones.Delete([]byte(*rec.Phone)); err != nil {
					return err
				}
			}
			if err := phones.Put([]byte(*phone), id[:]); err != nil {
				return err
			}
			rec.Phone = phone
		}
		if dob != nil {
			rec.DateOfBirth = dob
		}
		return putJSON(bucket, id[:], rec)
	})
}

func (r *voterRepository) update(id uuid.UUID, fn func(*voterRecord)) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return updateVoter(tx, id, fn)
	})
}

func updateVoter(tx *bolt.Tx, id uuid.UUID, fn func(*voterRecord)) error {
	bucket := tx.Bucket(bucketVoters)
	var rec voterRecord
	if err := getJSON(bucket, id[:], &rec, domain.ErrVoterNotFound); err != nil {
		return err
	}
	fn(&rec)
	return putJSON(bucket, id[:], rec)
}

func (r *voterRepository) ConsumeVerificationToken(ctx context.Context, token uuid.UUID) (uuid.UUID, error) {
	var vt domain.VerificationToken
	err := r.db.Update(func(tx *bolt.Tx) error {
		tokens := tx.Bucket(bucketTokens)
		if err := getJSON(tokens, token[:], &vt, domain.ErrTokenNotFound); err != nil {
			return err
		}
		if err := tokens.Delete(token[:]); err != nil {
			return err
		}
		return updateVoter(tx, vt.VoterID, func(rec *voterRecord) {
			rec.Verified = true
		})
	})
	if err != nil {
		return uuid.Nil, err
	}
	return vt.VoterID, nil
}

func (r *voterRepository) Count(ctx context.Context) (int64, error) {
	return count(r.db, bucketVoters)
}

func (r *voterRepository) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	return r.update(id, func(rec *voterRecord) {
		rec.Role = role
	})
}
