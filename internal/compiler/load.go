package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/collage/internal/ops"
	"github.com/roach88/collage/internal/partition"
)

// LoadDir builds the CUE package in dir into a single value.
func LoadDir(dir string) (cue.Value, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return value, nil
}

// CompileDir loads dir and compiles its specs and operator overrides.
// An absent ops field yields an empty override table.
func CompileDir(dir string) ([]*partition.Spec, map[string]ops.Kind, error) {
	v, err := LoadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	specs, err := CompileSpecs(v)
	if err != nil {
		return nil, nil, err
	}
	overrides := map[string]ops.Kind{}
	if ov := v.LookupPath(cue.ParsePath("ops")); ov.Exists() {
		if overrides, err = CompileOps(ov); err != nil {
			return nil, nil, err
		}
	}
	return specs, overrides, nil
}
