package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/cdietze/zombie-toolkit/internal/telemetry"
	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/cdietze/zombie-toolkit/pkg/swarm"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// The world actor speaks well-known protobuf types:
// a durationpb.Duration is a frame tick carrying wall time to simulate,
// a structpb.Struct is a command selected by its "op" field.
const (
	opStep     = "step"     // ask: run one fixed step, reply with a sample
	opSample   = "sample"   // ask: reply with the sample of the last step
	opSettings = "settings" // tell: patch steering settings
	opKick     = "kick"     // tell: kick the unit nearest to x, y
	opSpawn    = "spawn"    // tell: spawn n units around x, y
)

const fieldOp = "op"

// ErrUnexpectedReply is returned by DecodeSample for replies of another type.
var ErrUnexpectedReply = errors.New("unexpected world reply")

// settingsFields maps patch keys to the settings they tune.
var settingsFields = map[string]func(*swarm.Settings) *float64{
	"wanderPower":     func(s *swarm.Settings) *float64 { return &s.WanderPower },
	"wanderJitter":    func(s *swarm.Settings) *float64 { return &s.WanderJitter },
	"cohesionRadius":  func(s *swarm.Settings) *float64 { return &s.CohesionRadius },
	"cohesionPower":   func(s *swarm.Settings) *float64 { return &s.CohesionPower },
	"alignmentRadius": func(s *swarm.Settings) *float64 { return &s.AlignmentRadius },
	"alignmentPower":  func(s *swarm.Settings) *float64 { return &s.AlignmentPower },
}

// NewTick asks the world to simulate frame worth of wall time.
func NewTick(frame time.Duration) *durationpb.Duration {
	return durationpb.New(frame)
}

// StepCommand asks for exactly one fixed step.
func StepCommand() *structpb.Struct {
	return command(opStep, nil)
}

// SampleCommand asks for the telemetry of the last step.
func SampleCommand() *structpb.Struct {
	return command(opSample, nil)
}

// SettingsCommand patches the steering settings. Keys are the JSON names
// of the swarm config section.
func SettingsCommand(patch map[string]float64) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(patch))
	for k, v := range patch {
		fields[k] = structpb.NewNumberValue(v)
	}
	return command(opSettings, fields)
}

// KickCommand kicks the unit nearest to p, in world units.
func KickCommand(p geometry.Vector2D) *structpb.Struct {
	return command(opKick, map[string]*structpb.Value{
		"x": structpb.NewNumberValue(p.X),
		"y": structpb.NewNumberValue(p.Y),
	})
}

// SpawnCommand adds a crowd of n units around center.
func SpawnCommand(n int, center geometry.Vector2D) *structpb.Struct {
	return command(opSpawn, map[string]*structpb.Value{
		"n": structpb.NewNumberValue(float64(n)),
		"x": structpb.NewNumberValue(center.X),
		"y": structpb.NewNumberValue(center.Y),
	})
}

func command(op string, fields map[string]*structpb.Value) *structpb.Struct {
	if fields == nil {
		fields = make(map[string]*structpb.Value, 1)
	}
	fields[fieldOp] = structpb.NewStringValue(op)
	return &structpb.Struct{Fields: fields}
}

// applySettingsPatch returns s with the patched fields. Unknown keys and
// non-numeric values are rejected, and so is a result that does not validate.
func applySettingsPatch(s swarm.Settings, cmd *structpb.Struct) (swarm.Settings, error) {
	for k, v := range cmd.GetFields() {
		if k == fieldOp {
			continue
		}
		field, ok := settingsFields[k]
		if !ok {
			return s, fmt.Errorf("unknown setting %q", k)
		}
		num, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return s, fmt.Errorf("setting %q must be a number", k)
		}
		*field(&s) = num.NumberValue
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func pointOf(cmd *structpb.Struct) geometry.Vector2D {
	f := cmd.GetFields()
	return geometry.NewVector(f["x"].GetNumberValue(), f["y"].GetNumberValue())
}

// SampleToStruct encodes a telemetry sample as a reply message.
func SampleToStruct(s telemetry.Sample) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"tick":          structpb.NewNumberValue(float64(s.Tick)),
		"simTimeMs":     structpb.NewNumberValue(float64(s.SimTimeMs)),
		"units":         structpb.NewNumberValue(float64(s.Units)),
		"meanSpeed":     structpb.NewNumberValue(s.MeanSpeed),
		"speedStdDev":   structpb.NewNumberValue(s.SpeedStdDev),
		"speedP90":      structpb.NewNumberValue(s.SpeedP90),
		"polarization":  structpb.NewNumberValue(s.Polarization),
		"meanNeighbors": structpb.NewNumberValue(s.MeanNeighbors),
		"skipped":       structpb.NewNumberValue(float64(s.Skipped)),
	}}
}

// SampleFromStruct decodes a reply produced by SampleToStruct.
func SampleFromStruct(st *structpb.Struct) telemetry.Sample {
	f := st.GetFields()
	num := func(k string) float64 { return f[k].GetNumberValue() }
	return telemetry.Sample{
		Tick:          uint64(num("tick")),
		SimTimeMs:     int64(num("simTimeMs")),
		Units:         int(num("units")),
		MeanSpeed:     num("meanSpeed"),
		SpeedStdDev:   num("speedStdDev"),
		SpeedP90:      num("speedP90"),
		Polarization:  num("polarization"),
		MeanNeighbors: num("meanNeighbors"),
		Skipped:       int(num("skipped")),
	}
}

// DecodeSample reads the reply to a step or sample command.
func DecodeSample(reply proto.Message) (telemetry.Sample, error) {
	st, ok := reply.(*structpb.Struct)
	if !ok {
		return telemetry.Sample{}, fmt.Errorf("%w: %T", ErrUnexpectedReply, reply)
	}
	return SampleFromStruct(st), nil
}
