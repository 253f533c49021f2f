package repository

import (
	"gorm.io/gorm"
)

// Rank is an operator-assigned ordinal used for bonus point tiering.
// It is compared as an opaque number, it does not imply better or worse.
type Division struct {
	ID   int    `gorm:"primaryKey"`
	Name string `gorm:"not null"`
	Rank int    `gorm:"not null;default:1"`
}

type DivisionRepository struct {
	DB *gorm.DB
}

func NewDivisionRepository(db *gorm.DB) *DivisionRepository {
	return &DivisionRepository{DB: db}
}

func (r *DivisionRepository) GetDivisionById(divisionId int) (*Division, error) {
	var division Division
	result := r.DB.First(&division, divisionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &division, nil
}

func (r *DivisionRepository) Save(division *Division) (*Division, error) {
	if division.Rank == 0 {
		division.Rank = 1
	}
	result := r.DB.Save(division)
	if result.Error != nil {
		return nil, result.Error
	}
	return division, nil
}

func (r *DivisionRepository) Delete(divisionId int) error {
	result := r.DB.Delete(Division{}, divisionId)
	return result.Error
}

func (r *DivisionRepository) FindAll() ([]Division, error) {
	var divisions []Division
	result := r.DB.Find(&divisions)
	if result.Error != nil {
		return nil, result.Error
	}
	return divisions, nil
}
