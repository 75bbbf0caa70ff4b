package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleVoter = "voter"
	RoleAdmin = "admin"

	// MinimumVotingAge is the age in whole years a voter must have reached.
	MinimumVotingAge = 18
)

type Voter struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	NationalID   *string    `json:"national_id,omitempty"`
	Phone        *string    `json:"phone_number,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Verified     bool       `json:"is_verified"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CanVote reports whether the voter is verified and old enough at now.
func (v *Voter) CanVote(now time.Time) bool {
	if v == nil || !v.Verified || v.DateOfBirth == nil {
		return false
	}
	return IsEligible(*v.DateOfBirth, now)
}

type VerificationToken struct {
	Token     uuid.UUID `json:"token"`
	VoterID   uuid.UUID `json:"voter_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AgeAt returns the age in whole years at now, comparing calendar month and
// day so leap years and birthdays are handled exactly. dob is a calendar date
// and is read in its own location.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func IsEligible(dob, now time.Time) bool {
	return AgeAt(dob, now) >= MinimumVotingAge
}
