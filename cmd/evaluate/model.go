package main

import (
	"fmt"

	"github.com/danielpatrickdp/analyst-eval/internal/codec"
	"github.com/danielpatrickdp/analyst-eval/internal/config"
	"github.com/danielpatrickdp/analyst-eval/internal/model"
)

// #region open-model
// openModel builds the capability set declared by mc. The returned close
// function releases any connection held by the model.
func openModel(mc config.Model) (model.Capabilities, func() error, error) {
	noop := func() error { return nil }
	switch mc.Kind {
	case "linear":
		l, err := model.LoadLinear(mc.Path)
		if err != nil {
			return model.Capabilities{}, noop, err
		}
		var caps model.Capabilities
		if mc.Classify() {
			caps.Classifier = l.AsClassifier()
		}
		if mc.Regress() {
			caps.Regressor = l
		}
		return caps, noop, nil
	case "remote":
		rm, err := codec.NewRemoteModel(mc.Address, mc.Classify(), mc.Regress())
		if err != nil {
			return model.Capabilities{}, noop, err
		}
		return rm.Capabilities(), rm.Close, nil
	}
	return model.Capabilities{}, noop, fmt.Errorf("unknown model kind %q", mc.Kind)
}

// #endregion open-model
