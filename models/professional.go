package models

import (
	"fmt"
	"time"
)

// ProfessionalKind tags which directory a professional reference resolves against.
type ProfessionalKind string

const (
	KindDoctor          ProfessionalKind = "doctor"
	KindPhysiotherapist ProfessionalKind = "physiotherapist"
	KindPathology       ProfessionalKind = "pathology"
)

var professionalKinds = []ProfessionalKind{KindDoctor, KindPhysiotherapist, KindPathology}

// ProfessionalKinds lists every supported kind in a stable order.
func ProfessionalKinds() []ProfessionalKind {
	out := make([]ProfessionalKind, len(professionalKinds))
	copy(out, professionalKinds)
	return out
}

func (k ProfessionalKind) Valid() bool {
	for _, known := range professionalKinds {
		if k == known {
			return true
		}
	}
	return false
}

func ParseProfessionalKind(s string) (ProfessionalKind, error) {
	k := ProfessionalKind(s)
	if !k.Valid() {
		return "", &ValidationError{Field: "professionalType", Reason: fmt.Sprintf("unknown professional type %q", s)}
	}
	return k, nil
}

// ProfessionalRef is the tagged reference {kind, id} used everywhere a professional is named.
type ProfessionalRef struct {
	Kind ProfessionalKind `bson:"kind" json:"professionalType"`
	ID   string           `bson:"id" json:"professionalId"`
}

func (r ProfessionalRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

func (r ProfessionalRef) Validate() error {
	if !r.Kind.Valid() {
		return &ValidationError{Field: "professionalType", Reason: fmt.Sprintf("unknown professional type %q", r.Kind)}
	}
	if r.ID == "" {
		return &ValidationError{Field: "professionalId", Reason: "required"}
	}
	return nil
}

// Professional is the subset of a professional profile the calendar needs.
type Professional struct {
	ID        string           `bson:"id" json:"id"`
	Kind      ProfessionalKind `bson:"kind" json:"professionalType"`
	Name      string           `bson:"name" json:"name"`
	Verified  bool             `bson:"verified" json:"verified"`
	Active    bool             `bson:"active" json:"active"`
	UpdatedAt time.Time        `bson:"updatedAt" json:"updatedAt,omitzero"`
}

func (p Professional) Ref() ProfessionalRef {
	return ProfessionalRef{Kind: p.Kind, ID: p.ID}
}

// Eligible reports whether slots may be offered for this professional.
func (p Professional) Eligible() bool {
	return p.Active && p.Verified
}
