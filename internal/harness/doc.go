// Package harness runs partition scenarios: a graph, a directory of CUE
// specs, and assertions over the candidates the specs enumerate.
//
// Each scenario runs against a fresh in-memory pass store. Candidates are
// recorded and read back before assertions run, so a scenario also checks
// that a pass survives the store unchanged.
//
// Scenario files are YAML:
//
//	name: matmul_relu
//	description: CUTLASS claims the fused matmul+relu
//	graph: ../graphs/matmul_relu.yaml
//	specs: ../specs/cutlass
//	spec: cutlass
//	assertions:
//	  - type: contains
//	    provenance: [matmul_relu, cutlass.matmul_relu, cutlass]
//	    nodes: [mm, r]
//	  - type: candidate_count
//	    count: 3
//
// Golden files hold the canonical JSON listing of every candidate and live
// in testdata/golden/<name>.golden. Regenerate them with:
//
//	go test ./internal/harness -update
package harness
