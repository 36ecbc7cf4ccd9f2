// Package prediction assembles heart-attack risk features and asks a remote
// model to score them.
package prediction

import (
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
)

// Features is the record sent to the scoring model. The field order is the
// wire order and must not change.
type Features struct {
	Age      int     `json:"age"`
	Sex      int     `json:"sex"`
	Trestbps float64 `json:"trestbps"`
	Chol     float64 `json:"chol"`
	Fbs      int     `json:"fbs"`
	Thalach  int     `json:"thalach"`
	Thal     int     `json:"thal"`
}

// FastingBloodSugarThreshold is the blood sugar level (mg/dL) above which fbs is 1.
const FastingBloodSugarThreshold = 120

// Age returns the whole years elapsed between birth and now.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// BuildFeatures derives the feature record from the user's demographics and
// the latest blood pressure and glycemic measurements in history, which must
// be in insertion order. infarto is the patient's answer to the prior heart
// attack question; only "si" counts as yes.
func BuildFeatures(user model.User, history []model.Measurement, infarto string, now time.Time) (Features, error) {
	pressure, ok := model.LastOfCategory(history, model.CategoryBloodPressure)
	if !ok {
		return Features{}, util.WrapError(util.ErrDataMissing, "no %s measurement for user %d", model.CategoryBloodPressure, user.ID)
	}
	glycemic, ok := model.LastOfCategory(history, model.CategoryGlycemic)
	if !ok {
		return Features{}, util.WrapError(util.ErrDataMissing, "no %s measurement for user %d", model.CategoryGlycemic, user.ID)
	}

	f := Features{
		Age:      Age(user.DateOfBirth, now),
		Trestbps: pressure.AveragePressure,
		Chol:     glycemic.Cholesterol,
		Thalach:  pressure.BeatsPerMinute,
	}
	if user.Gender == "M" {
		f.Sex = 1
	}
	if glycemic.BloodSugar > FastingBloodSugarThreshold {
		f.Fbs = 1
	}
	if infarto == "si" {
		f.Thal = 1
	}
	return f, nil
}
