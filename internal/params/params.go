package params

import (
  "fmt"
  "sort"
)

// SchemaVersion identifies the parameter registry below. Adding, removing or
// renaming a parameter is a version bump plus a stored-profile migration,
// never a runtime schema change.
const SchemaVersion = 1

const Count = 47

// The six top-level cognitive dimensions.
const (
  DimReasoningStrategy = "reasoning_strategy"
  DimMemoryRetrieval   = "memory_retrieval"
  DimAttentionFocus    = "attention_focus"
  DimProcessingSpeed   = "processing_speed"
  DimVerbalLinguistic  = "verbal_linguistic"
  DimNumericalSpatial  = "numerical_spatial"
)

var dimensions = []string{
  DimReasoningStrategy,
  DimMemoryRetrieval,
  DimAttentionFocus,
  DimProcessingSpeed,
  DimVerbalLinguistic,
  DimNumericalSpatial,
}

// byDimension is the canonical registry: 47 parameters, slot order fixed by
// dimension order then declaration order. Order is load-bearing for Slot().
var byDimension = map[string][]string{
  DimReasoningStrategy: {
    "logical_deduction",
    "inductive_reasoning",
    "pattern_recognition",
    "abstract_thinking",
    "causal_inference",
    "analogical_reasoning",
    "planning_foresight",
    "cognitive_flexibility",
  },
  DimMemoryRetrieval: {
    "working_memory",
    "short_term_recall",
    "long_term_retention",
    "associative_memory",
    "sequential_memory",
    "visual_memory",
    "verbal_memory",
    "retrieval_speed",
  },
  DimAttentionFocus: {
    "sustained_attention",
    "selective_attention",
    "divided_attention",
    "attention_switching",
    "distraction_resistance",
    "vigilance",
    "detail_orientation",
    "focus_recovery",
  },
  DimProcessingSpeed: {
    "reaction_time",
    "decision_speed",
    "visual_scanning",
    "information_throughput",
    "perceptual_speed",
    "task_switching_speed",
    "mental_arithmetic_speed",
  },
  DimVerbalLinguistic: {
    "vocabulary_breadth",
    "reading_comprehension",
    "verbal_fluency",
    "semantic_precision",
    "syntactic_awareness",
    "inference_from_text",
    "instruction_parsing",
    "verbal_analogy",
  },
  DimNumericalSpatial: {
    "numerical_reasoning",
    "quantitative_estimation",
    "spatial_visualization",
    "mental_rotation",
    "geometric_reasoning",
    "proportional_reasoning",
    "data_interpretation",
    "symbolic_manipulation",
  },
}

var (
  ordered []string
  slots   map[string]int
  dimOf   map[string]string
)

func init() {
  ordered = make([]string, 0, Count)
  slots = make(map[string]int, Count)
  dimOf = make(map[string]string, Count)
  for _, d := range dimensions {
    for _, p := range byDimension[d] {
      if _, dup := slots[p]; dup {
        panic(fmt.Sprintf("params: duplicate parameter %q", p))
      }
      slots[p] = len(ordered)
      dimOf[p] = d
      ordered = append(ordered, p)
    }
  }
  if len(ordered) != Count {
    panic(fmt.Sprintf("params: registry holds %d parameters, want %d", len(ordered), Count))
  }
}

// All returns the 47 parameter names in slot order. The slice is shared;
// callers must not mutate it.
func All() []string { return ordered }

// Dimensions returns the six dimension labels in canonical order.
func Dimensions() []string { return dimensions }

// ForDimension returns the parameter names belonging to one dimension.
func ForDimension(dim string) []string { return byDimension[dim] }

// Slot maps a parameter name to its fixed vector index, or -1 if unknown.
func Slot(name string) int {
  i, ok := slots[name]
  if !ok {
    return -1
  }
  return i
}

// DimensionOf returns the dimension a parameter belongs to, or "".
func DimensionOf(name string) string { return dimOf[name] }

func IsParameter(name string) bool { _, ok := slots[name]; return ok }

func IsDimension(name string) bool {
  _, ok := byDimension[name]
  return ok
}

// Vector is a dense 47-slot score vector on the 0..100 scale.
type Vector [Count]float64

// VectorFromMap builds a Vector from a name-keyed map, dropping unknown keys.
// Missing keys stay 0.
func VectorFromMap(m map[string]float64) Vector {
  var v Vector
  for name, val := range m {
    if i := Slot(name); i >= 0 {
      v[i] = val
    }
  }
  return v
}

// ToMap materializes the vector as a name-keyed map with all 47 keys present.
func (v Vector) ToMap() map[string]float64 {
  out := make(map[string]float64, Count)
  for i, name := range ordered {
    out[name] = v[i]
  }
  return out
}

// Clamp bounds every slot to [0,100] in place and returns the vector.
func (v Vector) Clamp() Vector {
  for i := range v {
    v[i] = Clamp(v[i])
  }
  return v
}

func Clamp(x float64) float64 {
  if x < 0 {
    return 0
  }
  if x > 100 {
    return 100
  }
  return x
}

// Blend applies one exponential-moving-average step per slot:
// next = (1-alpha)*prev + alpha*latest, clamped to [0,100].
func Blend(prev, latest Vector, alpha float64) Vector {
  var next Vector
  for i := range prev {
    next[i] = Clamp((1-alpha)*prev[i] + alpha*latest[i])
  }
  return next
}

// SortedNames returns the 47 names in lexical order, for deterministic output.
func SortedNames() []string {
  out := make([]string, Count)
  copy(out, ordered)
  sort.Strings(out)
  return out
}
