package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/collage/internal/compiler"
	"github.com/roach88/collage/internal/ops"
	"github.com/roach88/collage/internal/partition"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	Specs     []*partition.Spec
	Ops       map[string]ops.Kind
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpecs loads and compiles CUE specs from a directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	result, loadErr := loadValue(dir)
	if loadErr != nil {
		return nil, []error{loadErr}
	}
	value := result.CUEValue

	if opsVal := value.LookupPath(cue.ParsePath("ops")); opsVal.Exists() {
		kinds, err := compiler.CompileOps(opsVal)
		if err != nil {
			errs = append(errs, convertCompileError(err, "ops"))
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			result.Ops = kinds
		}
	}

	specsVal := value.LookupPath(cue.ParsePath("spec"))
	if specsVal.Exists() {
		iter, iterErr := specsVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating specs: %v", iterErr)})
			return result, errs
		}
		for iter.Next() {
			spec, compileErr := compiler.CompileSpec(iter.Value())
			if compileErr != nil {
				errs = append(errs, convertCompileError(compileErr, "spec."+iter.Label()))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Specs = append(result.Specs, spec)
		}
	}

	if len(result.Specs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no specs found"})
	}

	return result, errs
}

// loadValue checks dir and builds its CUE package without compiling specs.
func loadValue(dir string) (*LoadResult, *LoadError) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	value, err := compiler.LoadDir(dir)
	if err != nil {
		loadErr := &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			loadErr.Code = ErrCodeBuildFailed
			loadErr.Message = ce.Message
			loadErr.Pos = ce.Pos
		}
		return nil, loadErr
	}

	return &LoadResult{
		Ops:       map[string]ops.Kind{},
		CUEValue:  value,
		FileCount: len(cueFiles),
	}, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := MapFieldToErrorCode(compileErr.Field)
		if rerrs := partition.RuleErrors(err); len(rerrs) > 0 {
			code = compiler.RuleCode(rerrs[0].Code)
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeGraphFailed = "E008" // Graph file could not be loaded
	ErrCodeEnumFailed  = "E009" // Enumeration failed

	// Spec shape errors
	ErrCodeInvalidTarget  = "E125" // Missing or malformed target
	ErrCodeInvalidRule    = "E128" // Malformed rule value
	ErrCodeInvalidPattern = "E129" // Malformed pattern or predicate
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case strings.HasPrefix(field, "target"):
		return ErrCodeInvalidTarget
	case strings.HasPrefix(field, "pattern"), field == "predicate":
		return ErrCodeInvalidPattern
	case strings.HasPrefix(field, "config"):
		return ErrCodeInvalidRule
	case field == "rule", field == "rules", field == "kind", field == "name", field == "sub":
		return ErrCodeInvalidRule
	default:
		return ErrCodeGeneric
	}
}
