package scoring

import (
	"fmt"
)

// Column transforms supported by the preprocessor.
const (
	TransformScale       = "scale"
	TransformPassthrough = "passthrough"
	TransformOneHot      = "onehot"
)

// Row is a single input record keyed by column name. Numeric columns hold
// float64 or int values; categorical columns hold strings.
type Row map[string]any

// Preprocessor is a column transformer: each input column is scaled, passed
// through, or one-hot encoded, in declaration order.
type Preprocessor struct {
	Columns []Column `yaml:"columns" json:"columns"`
}

// Column describes how one input column is transformed.
type Column struct {
	Name       string   `yaml:"name" json:"name"`
	Transform  string   `yaml:"transform" json:"transform"`
	Mean       float64  `yaml:"mean,omitempty" json:"mean,omitempty"`
	Scale      float64  `yaml:"scale,omitempty" json:"scale,omitempty"`
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"`
}

func (p *Preprocessor) validate() error {
	if len(p.Columns) == 0 {
		return fmt.Errorf("preprocessor declares no columns")
	}
	for _, col := range p.Columns {
		switch col.Transform {
		case TransformScale, TransformPassthrough:
		case TransformOneHot:
			if len(col.Categories) == 0 {
				return fmt.Errorf("column %s: onehot needs categories", col.Name)
			}
		default:
			return fmt.Errorf("column %s: unknown transform %q", col.Name, col.Transform)
		}
	}
	return nil
}

// Transform converts a row into the model's input vector.
func (p *Preprocessor) Transform(row Row) ([]float64, error) {
	out := make([]float64, 0, len(p.Columns))
	for _, col := range p.Columns {
		raw, ok := row[col.Name]
		if !ok {
			return nil, fmt.Errorf("column %s missing from input", col.Name)
		}
		switch col.Transform {
		case TransformScale:
			v, err := numeric(col.Name, raw)
			if err != nil {
				return nil, err
			}
			if col.Scale == 0 {
				return nil, fmt.Errorf("column %s: zero scale", col.Name)
			}
			out = append(out, (v-col.Mean)/col.Scale)
		case TransformPassthrough:
			v, err := numeric(col.Name, raw)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		case TransformOneHot:
			label, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("column %s: expected string category, got %T", col.Name, raw)
			}
			for _, category := range col.Categories {
				if category == label {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			}
		}
	}
	return out, nil
}

// FeatureNamesOut lists the transformed column names in vector order.
func (p *Preprocessor) FeatureNamesOut() []string {
	names := make([]string, 0, len(p.Columns))
	for _, col := range p.Columns {
		switch col.Transform {
		case TransformScale:
			names = append(names, "num__"+col.Name)
		case TransformPassthrough:
			names = append(names, "remainder__"+col.Name)
		case TransformOneHot:
			for _, category := range col.Categories {
				names = append(names, "cat__"+col.Name+"_"+category)
			}
		}
	}
	return names
}

func (p *Preprocessor) namedColumns() bool {
	for _, col := range p.Columns {
		if col.Name == "" {
			return false
		}
	}
	return true
}

func numeric(name string, raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("column %s: expected numeric value, got %T", name, raw)
	}
}
