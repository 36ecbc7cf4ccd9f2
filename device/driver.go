package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"go.uber.org/zap"
)

// Driver asks a device bridge over HTTP to take a reading:
// POST {baseURL}/devices/{serial}/measure
type Driver struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.SugaredLogger
	Now        func() time.Time
}

type measureRequest struct {
	Category string `json:"categoria"`
}

// reading is the bridge's response. Only the fields of the device's
// category are read.
type reading struct {
	MeasuredAt      *time.Time `json:"measured_at"`
	Systolic        int        `json:"systolic"`
	Diastolic       int        `json:"diastolic"`
	AveragePressure float64    `json:"average_pressure"`
	BeatsPerMinute  int        `json:"beats_per_minute"`
	BloodSugar      float64    `json:"blood_sugar"`
	Cholesterol     float64    `json:"cholesterol"`
	Triglycerides   float64    `json:"triglycerides"`
	Saturation      float64    `json:"oxygen_saturation"`
}

func NewDriver(baseURL string, timeout time.Duration, log *zap.SugaredLogger) *Driver {
	return &Driver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		Now:        time.Now,
	}
}

func (d *Driver) StartMeasurement(ctx context.Context, dev model.Device) (model.Measurement, error) {
	if err := checkBound(dev); err != nil {
		return model.Measurement{}, err
	}

	body, err := json.Marshal(measureRequest{Category: dev.Category})
	if err != nil {
		return model.Measurement{}, fmt.Errorf("marshal measure request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/devices/%s/measure", d.baseURL, url.PathEscape(dev.SerialNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Measurement{}, fmt.Errorf("create measure request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.log.Warnw("device bridge unreachable", "serial", dev.SerialNumber, "error", err)
		return model.Measurement{}, fmt.Errorf("device %s: %w", dev.SerialNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.log.Warnw("device bridge refused reading", "serial", dev.SerialNumber, "status", resp.StatusCode)
		if resp.StatusCode == http.StatusNotFound {
			return model.Measurement{}, util.WrapError(util.ErrDeviceNotRegistered, "bridge does not know device %s", dev.SerialNumber)
		}
		return model.Measurement{}, fmt.Errorf("device %s: status %d: %s", dev.SerialNumber, resp.StatusCode, string(msg))
	}

	var r reading
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return model.Measurement{}, fmt.Errorf("decode reading from %s: %w", dev.SerialNumber, err)
	}

	at := d.Now().UTC()
	if r.MeasuredAt != nil {
		at = r.MeasuredAt.UTC()
	}

	switch dev.Category {
	case model.CategoryBloodPressure:
		return model.NewBloodPressure(*dev.PatientID, dev.ID, at, model.BloodPressure{
			Systolic:        r.Systolic,
			Diastolic:       r.Diastolic,
			AveragePressure: r.AveragePressure,
			BeatsPerMinute:  r.BeatsPerMinute,
		}), nil
	case model.CategoryGlycemic:
		return model.NewGlycemic(*dev.PatientID, dev.ID, at, model.Glycemic{
			BloodSugar:    r.BloodSugar,
			Cholesterol:   r.Cholesterol,
			Triglycerides: r.Triglycerides,
		}), nil
	case model.CategoryOxygenSaturation:
		return model.NewOxygenSaturation(*dev.PatientID, dev.ID, at, model.OxygenSaturation{
			Saturation:     r.Saturation,
			BeatsPerMinute: r.BeatsPerMinute,
		}), nil
	default:
		return model.Measurement{}, util.WrapError(util.ErrInvalidRequest, "device %d has unknown category %q", dev.ID, dev.Category)
	}
}
