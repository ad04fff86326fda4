package rpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// #region evaluate-codec
func encodeEvaluateRequest(req EvaluateRequest) (*structpb.Struct, error) {
	inputs := make(map[string]any, len(req.Inputs))
	for k, v := range req.Inputs {
		inputs[k] = v
	}
	return structpb.NewStruct(map[string]any{
		"model":     req.Model,
		"mode":      req.Mode,
		"normalize": req.Normalize,
		"inputs":    inputs,
	})
}

func decodeEvaluateRequest(s *structpb.Struct) (EvaluateRequest, error) {
	req := EvaluateRequest{
		Model:     stringField(s, "model"),
		Mode:      stringField(s, "mode"),
		Normalize: s.GetFields()["normalize"].GetBoolValue(),
		Inputs:    map[string]string{},
	}
	for name, v := range s.GetFields()["inputs"].GetStructValue().GetFields() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return EvaluateRequest{}, fmt.Errorf("input %q must be a string", name)
		}
		req.Inputs[name] = sv.StringValue
	}
	return req, nil
}

func encodeEvaluateResult(res EvaluateResult) (*structpb.Struct, error) {
	outputs := make(map[string]any, len(res.Outputs))
	for name, o := range res.Outputs {
		weights := make([]any, len(o.Weights))
		for i, w := range o.Weights {
			weights[i] = w
		}
		entry := map[string]any{
			"distribution": o.Distribution,
			"weights":      weights,
		}
		if o.Value != "" {
			entry["value"] = o.Value
		}
		outputs[name] = entry
	}
	return structpb.NewStruct(map[string]any{
		"run_id":  res.RunID,
		"outputs": outputs,
	})
}

func decodeEvaluateResult(s *structpb.Struct) EvaluateResult {
	res := EvaluateResult{
		RunID:   stringField(s, "run_id"),
		Outputs: map[string]Output{},
	}
	for name, v := range s.GetFields()["outputs"].GetStructValue().GetFields() {
		entry := v.GetStructValue()
		o := Output{
			Value:        stringField(entry, "value"),
			Distribution: stringField(entry, "distribution"),
		}
		for _, w := range entry.GetFields()["weights"].GetListValue().GetValues() {
			o.Weights = append(o.Weights, w.GetNumberValue())
		}
		res.Outputs[name] = o
	}
	return res
}
// #endregion evaluate-codec

// #region describe-codec
func encodeDescription(d Description) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"model":     d.Model,
		"basic":     anyList(d.Basic),
		"aggregate": anyList(d.Aggregate),
		"linked":    anyList(d.Linked),
		"explicit":  d.Explicit,
		"complete":  d.Complete,
	})
}

func decodeDescription(s *structpb.Struct) Description {
	return Description{
		Model:     stringField(s, "model"),
		Basic:     stringList(s, "basic"),
		Aggregate: stringList(s, "aggregate"),
		Linked:    stringList(s, "linked"),
		Explicit:  s.GetFields()["explicit"].GetBoolValue(),
		Complete:  s.GetFields()["complete"].GetBoolValue(),
	}
}
// #endregion describe-codec

// #region helpers
func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func stringList(s *structpb.Struct, key string) []string {
	var out []string
	for _, v := range s.GetFields()[key].GetListValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

func anyList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
// #endregion helpers
