package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/MagSeed/internal/model"
)

// The DTOs mirror the region document schema. Coordinates are pointers so a
// missing key can be told apart from zero.

type pointDoc struct {
	X        *float64 `json:"x" yaml:"x" validate:"required"`
	Y        *float64 `json:"y" yaml:"y" validate:"required"`
	Z        *float64 `json:"z" yaml:"z" validate:"required"`
	Exterior *bool    `json:"exterior,omitempty" yaml:"exterior,omitempty"`
}

type aabbDoc struct {
	Min *pointDoc `json:"min" yaml:"min" validate:"required"`
	Max *pointDoc `json:"max" yaml:"max" validate:"required"`
}

type regionDoc struct {
	Label         string       `json:"label,omitempty" yaml:"label,omitempty"`
	Points        [][]pointDoc `json:"points" yaml:"points" validate:"len=2,dive,len=4,dive"`
	AABB          *aabbDoc     `json:"aabb,omitempty" yaml:"aabb,omitempty"` // Derived from the corners when omitted
	Magnetization string       `json:"magnetization" yaml:"magnetization" validate:"required,oneof=positive negative none"`
	Vector        *pointDoc    `json:"vector" yaml:"vector" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (p *pointDoc) point() model.Point3D {
	return model.Point3D{X: *p.X, Y: *p.Y, Z: *p.Z}
}

func (p *pointDoc) vector() model.Vector3D {
	return model.Vector3D{X: *p.X, Y: *p.Y, Z: *p.Z}
}

func (d *regionDoc) region() model.FieldRegion {
	var prism model.Prism
	for i := range prism {
		for j := range prism[i] {
			prism[i][j] = d.Points[i][j].point()
		}
	}
	r := model.NewFieldRegion(prism, model.Magnetization(d.Magnetization), d.Vector.vector())
	r.Label = d.Label
	if d.AABB != nil {
		r.AABB = model.AABB{Min: d.AABB.Min.point(), Max: d.AABB.Max.point()}
	}
	return r
}

// convert checks the decoded documents against the schema and the region
// invariants. The first failure is returned as *model.InvalidFieldRegionError.
func convert(docs []regionDoc, check model.RegionCheck) ([]model.FieldRegion, error) {
	regions := make([]model.FieldRegion, 0, len(docs))
	for i := range docs {
		if err := validate.Struct(&docs[i]); err != nil {
			return nil, schemaError(i, err)
		}
		r := docs[i].region()
		if err := r.Validate(i, check); err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

func schemaError(index int, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &model.InvalidFieldRegionError{Index: index, Reason: err.Error()}
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	reason := "failed " + fe.Tag()
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "len":
		reason = fmt.Sprintf("must have %s items", fe.Param())
	case "oneof":
		reason = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return &model.InvalidFieldRegionError{Index: index, Field: field, Reason: reason}
}

// DecodeRegionsJSON reads a JSON array of region documents. Unknown keys are
// rejected.
func DecodeRegionsJSON(r io.Reader, check model.RegionCheck) ([]model.FieldRegion, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var docs []regionDoc
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode regions: %w", err)
	}
	return convert(docs, check)
}

// DecodeRegionsYAML reads a YAML sequence of region documents. Unknown keys
// are rejected.
func DecodeRegionsYAML(r io.Reader, check model.RegionCheck) ([]model.FieldRegion, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var docs []regionDoc
	if err := dec.Decode(&docs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode regions: %w", err)
	}
	return convert(docs, check)
}

// LoadRegions reads regions from path, choosing the decoder by extension:
// .json, .yaml/.yml, .csv or .xlsx. Tabular files fail on the first row error.
func LoadRegions(path string, check model.RegionCheck) ([]model.FieldRegion, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".xlsx", ".xlsm":
		var res ImportResult
		if ext == ".csv" {
			res = ImportCSV(path)
		} else {
			res = ImportExcel(path)
		}
		if len(res.Errors) > 0 {
			return nil, fmt.Errorf("failed to import %s: %s", path, strings.Join(res.Errors, "; "))
		}
		if err := model.ValidateRegions(res.Regions, check); err != nil {
			return nil, err
		}
		return res.Regions, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open regions: %w", err)
	}
	defer f.Close()

	switch ext {
	case ".yaml", ".yml":
		return DecodeRegionsYAML(f, check)
	default:
		return DecodeRegionsJSON(f, check)
	}
}
