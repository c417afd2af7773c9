package pets

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesOther:
		return true
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale }

// Pet is owned by exactly one user. Age and BMI are derived on every read
// and never stored.
type Pet struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID           primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Name              string             `bson:"name" json:"name"`
	Species           Species            `bson:"species" json:"species"`
	Breed             string             `bson:"breed,omitempty" json:"breed,omitempty"`
	BirthDate         time.Time          `bson:"birthDate" json:"birthDate"`
	Weight            float64            `bson:"weight" json:"weight"`
	Height            *float64           `bson:"height,omitempty" json:"height,omitempty"`
	Gender            Gender             `bson:"gender" json:"gender"`
	IsNeutered        bool               `bson:"isNeutered" json:"isNeutered"`
	Avatar            string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	AvatarPublicID    string             `bson:"avatarPublicId,omitempty" json:"-"`
	MicrochipID       string             `bson:"microchipId,omitempty" json:"microchipId,omitempty"`
	MedicalConditions []string           `bson:"medicalConditions" json:"medicalConditions"`
	Allergies         []string           `bson:"allergies" json:"allergies"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	Version           int64              `bson:"version" json:"version"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`

	Age int      `bson:"-" json:"age"`
	BMI *float64 `bson:"-" json:"bmi,omitempty"`
}

// AgeAt returns whole years between birth and now, never negative.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// derive fills the computed fields for the given instant.
func (p *Pet) derive(now time.Time) {
	p.Age = AgeAt(p.BirthDate, now)
	p.BMI = nil
	if p.Height != nil && *p.Height > 0 && p.Weight > 0 {
		m := *p.Height / 100
		bmi := math.Round(p.Weight/(m*m)*100) / 100
		p.BMI = &bmi
	}
	if p.MedicalConditions == nil {
		p.MedicalConditions = []string{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
}

// Patch is the allowlist of fields an owner may change.
type Patch struct {
	Name              *string
	Species           *Species
	Breed             *string
	BirthDate         *time.Time
	Weight            *float64
	Height            *float64
	Gender            *Gender
	IsNeutered        *bool
	Avatar            *string
	AvatarPublicID    *string
	MicrochipID       *string
	MedicalConditions *[]string
	Allergies         *[]string
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Species == nil && p.Breed == nil && p.BirthDate == nil &&
		p.Weight == nil && p.Height == nil && p.Gender == nil && p.IsNeutered == nil &&
		p.Avatar == nil && p.AvatarPublicID == nil && p.MicrochipID == nil &&
		p.MedicalConditions == nil && p.Allergies == nil
}

// Apply mutates pet in place; used by the in-memory store and to validate
// the merged result before writing.
func (p Patch) Apply(pet *Pet) {
	if p.Name != nil {
		pet.Name = *p.Name
	}
	if p.Species != nil {
		pet.Species = *p.Species
	}
	if p.Breed != nil {
		pet.Breed = *p.Breed
	}
	if p.BirthDate != nil {
		pet.BirthDate = *p.BirthDate
	}
	if p.Weight != nil {
		pet.Weight = *p.Weight
	}
	if p.Height != nil {
		h := *p.Height
		pet.Height = &h
	}
	if p.Gender != nil {
		pet.Gender = *p.Gender
	}
	if p.IsNeutered != nil {
		pet.IsNeutered = *p.IsNeutered
	}
	if p.Avatar != nil {
		pet.Avatar = *p.Avatar
	}
	if p.AvatarPublicID != nil {
		pet.AvatarPublicID = *p.AvatarPublicID
	}
	if p.MicrochipID != nil {
		pet.MicrochipID = *p.MicrochipID
	}
	if p.MedicalConditions != nil {
		pet.MedicalConditions = append([]string{}, (*p.MedicalConditions)...)
	}
	if p.Allergies != nil {
		pet.Allergies = append([]string{}, (*p.Allergies)...)
	}
}

// Request DTOs. None of them carry an owner: ownership comes from the token.

type CreatePetRequest struct {
	Name              string   `json:"name" binding:"required" example:"Rex"`
	Species           Species  `json:"species" binding:"required" example:"dog"`
	Breed             string   `json:"breed" example:"Golden Retriever"`
	BirthDate         string   `json:"birthDate" binding:"required" example:"2022-01-15"`
	Weight            float64  `json:"weight" binding:"required" example:"25.5"`
	Height            *float64 `json:"height" example:"60"`
	Gender            Gender   `json:"gender" binding:"required" example:"male"`
	IsNeutered        bool     `json:"isNeutered"`
	MicrochipID       string   `json:"microchipId"`
	MedicalConditions []string `json:"medicalConditions"`
	Allergies         []string `json:"allergies"`
}

// UpdatePetRequest lists the mutable fields. Version, when sent, must match
// the stored one.
type UpdatePetRequest struct {
	Name              *string   `json:"name"`
	Species           *Species  `json:"species"`
	Breed             *string   `json:"breed"`
	BirthDate         *string   `json:"birthDate"`
	Weight            *float64  `json:"weight"`
	Height            *float64  `json:"height"`
	Gender            *Gender   `json:"gender"`
	IsNeutered        *bool     `json:"isNeutered"`
	MicrochipID       *string   `json:"microchipId"`
	MedicalConditions *[]string `json:"medicalConditions"`
	Allergies         *[]string `json:"allergies"`
	Version           *int64    `json:"version"`
}

type ListPetsQuery struct {
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
	Search  string `form:"search"`
	Species string `form:"species"`
}

// Stats summarises a set of pets.
type Stats struct {
	Total      int64           `json:"total"`
	BySpecies  map[Species]int `json:"bySpecies"`
	ByGender   map[Gender]int  `json:"byGender"`
	AverageAge float64         `json:"averageAge"`
	Neutered   int             `json:"neutered"`
}
