// Package regression prepares cleaned tables for the rehospitalization models.
// Training itself is not available; the entry points report ErrNotImplemented.
package regression

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/liav-dl/rehosp-prep/pkg/model"
)

var (
	// ErrNotImplemented is returned by model entry points that have no implementation
	ErrNotImplemented = errors.New("not implemented")
	// ErrInvalidTarget is returned when the target column cannot be used for regression
	ErrInvalidTarget = errors.New("invalid target column")
)

// Activation of a dense layer
type Activation string

const (
	ActivationReLU   Activation = "relu"
	ActivationLinear Activation = "linear"
)

// Layer is one fully connected layer
type Layer struct {
	Units      int
	Activation Activation
}

// Network describes a feed-forward regression network
type Network struct {
	Inputs int
	Layers []Layer
}

// TrainConfig holds the optimizer settings for training
type TrainConfig struct {
	Optimizer       string
	Loss            string
	Epochs          int
	BatchSize       int
	ValidationSplit float64
}

// DefaultNetwork returns Dense(64, relu) -> Dense(32, relu) -> Dense(1, linear)
func DefaultNetwork(inputs int) Network {
	return Network{
		Inputs: inputs,
		Layers: []Layer{
			{Units: 64, Activation: ActivationReLU},
			{Units: 32, Activation: ActivationReLU},
			{Units: 1, Activation: ActivationLinear},
		},
	}
}

// DefaultTrainConfig returns adam/mse for 50 epochs, batches of 32, 20% validation
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Optimizer:       "adam",
		Loss:            "mse",
		Epochs:          50,
		BatchSize:       32,
		ValidationSplit: 0.2,
	}
}

// ParameterCount returns the number of trainable weights and biases
func (n Network) ParameterCount() int {
	total := 0
	in := n.Inputs
	for _, l := range n.Layers {
		total += in*l.Units + l.Units
		in = l.Units
	}
	return total
}

// Dataset is a feature matrix and target vector
type Dataset struct {
	FeatureNames []string
	TargetName   string
	X            *mat.Dense
	Y            *mat.VecDense
}

// MinMaxScale returns a copy of the table with the named numeric columns scaled to [0, 1].
// With no names every numeric column is scaled. Constant columns map to 0; missing cells stay missing.
// Scaled integer columns become real columns.
func MinMaxScale(t *model.Table, columns ...string) (*model.Table, error) {
	targets, err := resolveNumeric(t, columns)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	for _, c := range targets {
		values := t.ColumnValues(c)
		out.Columns[c].Type = model.ColumnReal
		if len(values) == 0 {
			continue
		}
		lo, hi := floats.Min(values), floats.Max(values)
		span := hi - lo
		for _, row := range out.Rows {
			f, ok := model.ToFloat(row[c])
			if !ok {
				row[c] = nil
				continue
			}
			if span == 0 {
				row[c] = 0.0
				continue
			}
			row[c] = (f - lo) / span
		}
	}
	return out, nil
}

// SplitFeaturesTarget separates the target column from the numeric feature columns.
// Every row must be complete; clean the table first.
func SplitFeaturesTarget(t *model.Table, target string) (*Dataset, error) {
	ti := t.ColumnIndex(target)
	if ti < 0 {
		return nil, fmt.Errorf("%w: column %q not found", ErrInvalidTarget, target)
	}
	if !t.Columns[ti].Type.IsNumeric() {
		return nil, fmt.Errorf("%w: column %q is %s, not numeric", ErrInvalidTarget, target, t.Columns[ti].Type)
	}

	var features []int
	for _, c := range t.NumericColumns() {
		if c != ti {
			features = append(features, c)
		}
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no numeric feature columns besides %q", ErrInvalidTarget, target)
	}
	if t.NumRows() == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrInvalidTarget)
	}

	ds := &Dataset{
		FeatureNames: make([]string, len(features)),
		TargetName:   t.Columns[ti].Name,
		X:            mat.NewDense(t.NumRows(), len(features), nil),
		Y:            mat.NewVecDense(t.NumRows(), nil),
	}
	for j, c := range features {
		ds.FeatureNames[j] = t.Columns[c].Name
	}
	for i, row := range t.Rows {
		y, ok := model.ToFloat(row[ti])
		if !ok {
			return nil, fmt.Errorf("row %d: missing target value", t.Index[i])
		}
		ds.Y.SetVec(i, y)
		for j, c := range features {
			x, ok := model.ToFloat(row[c])
			if !ok {
				return nil, fmt.Errorf("row %d: missing value in %s", t.Index[i], t.Columns[c].Name)
			}
			ds.X.Set(i, j, x)
		}
	}
	return ds, nil
}

// Train fits the network to the dataset
func Train(_ context.Context, _ Network, _ TrainConfig, _ *Dataset) error {
	return fmt.Errorf("training the regression network: %w", ErrNotImplemented)
}

// resolveNumeric maps column names to numeric column positions
func resolveNumeric(t *model.Table, names []string) ([]int, error) {
	if len(names) == 0 {
		return t.NumericColumns(), nil
	}
	positions := make([]int, 0, len(names))
	for _, name := range names {
		c := t.ColumnIndex(name)
		if c < 0 {
			return nil, fmt.Errorf("column %q not found", name)
		}
		if !t.Columns[c].Type.IsNumeric() {
			return nil, fmt.Errorf("column %q is %s, not numeric", name, t.Columns[c].Type)
		}
		positions = append(positions, c)
	}
	return positions, nil
}
