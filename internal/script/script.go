package script

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-response-cache/cache"
	"github.com/goliatone/go-response-cache/responsecache"
	"github.com/goliatone/go-response-cache/transport"
)

// Op names a cache operation a step performs.
type Op string

const (
	OpGetList                  Op = "get_list"
	OpGet                      Op = "get"
	OpFindByKey                Op = "find_by_key"
	OpFindByKeyOrRequest       Op = "find_by_key_or_request"
	OpFindByKeyOrRequestGetAll Op = "find_by_key_or_request_get_all"
	OpFind                     Op = "find"
	OpFindOrRequest            Op = "find_or_request"
	OpFindOrRequestGetAll      Op = "find_or_request_get_all"
	OpCreate                   Op = "create"
	OpUpdate                   Op = "update"
	OpDelete                   Op = "delete"
	OpRequest                  Op = "request"
	OpRequestCached            Op = "request_cached"
	OpClear                    Op = "clear"
	OpWait                     Op = "wait"
	OpSleep                    Op = "sleep"
)

// DefaultResource is used by steps that do not name one.
const DefaultResource = "default"

var ops = []any{
	OpGetList, OpGet, OpFindByKey, OpFindByKeyOrRequest, OpFindByKeyOrRequestGetAll,
	OpFind, OpFindOrRequest, OpFindOrRequestGetAll, OpCreate, OpUpdate, OpDelete,
	OpRequest, OpRequestCached, OpClear, OpWait, OpSleep,
}

// Script is a named sequence of cache operations.
type Script struct {
	Name string `yaml:"name"`
	// Resources maps a resource name to the id key of its cache. Resources
	// not listed use the configured id key.
	Resources map[string]string `yaml:"resources"`
	Steps     []Step            `yaml:"steps"`
}

// Step is one operation against the cache of Resource.
type Step struct {
	Name     string            `yaml:"name"`
	Resource string            `yaml:"resource"`
	Op       Op                `yaml:"op"`
	Method   string            `yaml:"method"`
	URL      string            `yaml:"url"`
	Body     any               `yaml:"body"`
	Headers  map[string]string `yaml:"headers"`

	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
	ID    any    `yaml:"id"`

	// Kind is list or occurrence, for request_cached.
	Kind           string   `yaml:"kind"`
	ListPath       []string `yaml:"list_path"`
	OccurrencePath []string `yaml:"occurrence_path"`

	ClearCache      bool `yaml:"clear_cache"`
	ClearLists      bool `yaml:"clear_lists"`
	ClearOccurrence bool `yaml:"clear_occurrence"`

	// Duration is how long a sleep step pauses.
	Duration time.Duration `yaml:"duration"`

	// Select is a gjson path applied to the step result before it is printed.
	Select string `yaml:"select"`

	// AllowError keeps the script going when the step fails.
	AllowError bool `yaml:"allow_error"`
}

// Load reads a YAML script from path and validates it.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML script and validates it.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("script has no steps")
	}
	for i := range s.Steps {
		if err := s.Steps[i].Validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.Steps[i].label(), err)
		}
	}
	return nil
}

// Validate checks that the step carries what its op needs.
func (st Step) Validate() error {
	needsURL := st.Op != OpClear && st.Op != OpWait && st.Op != OpSleep &&
		st.Op != OpFindByKey && st.Op != OpFind

	return validation.ValidateStruct(&st,
		validation.Field(&st.Op, validation.Required, validation.In(ops...)),
		validation.Field(&st.URL, validation.When(needsURL, validation.Required)),
		validation.Field(&st.Method, validation.When(st.Method != "", validation.By(validMethod))),
		validation.Field(&st.Key, validation.When(
			st.Op == OpFindByKey || st.Op == OpFindByKeyOrRequest || st.Op == OpFindByKeyOrRequestGetAll,
			validation.Required,
		)),
		validation.Field(&st.ID, validation.When(st.Op == OpUpdate || st.Op == OpDelete, validation.NotNil)),
		validation.Field(&st.Kind, validation.When(st.Op == OpRequestCached, validation.Required),
			validation.In("list", "occurrence")),
		validation.Field(&st.Duration, validation.When(st.Op == OpSleep, validation.Required)),
	)
}

func validMethod(v any) error {
	if !transport.Method(v.(string)).Valid() {
		return fmt.Errorf("unsupported method")
	}
	return nil
}

func (st Step) label() string {
	if st.Name != "" {
		return st.Name
	}
	return string(st.Op)
}

func (st Step) resource() string {
	if st.Resource != "" {
		return st.Resource
	}
	return DefaultResource
}

// method returns the step method or the default for its op.
func (st Step) method() transport.Method {
	if st.Method != "" {
		return transport.Method(st.Method)
	}
	switch st.Op {
	case OpCreate:
		return transport.MethodPost
	case OpUpdate:
		return transport.MethodPatch
	case OpDelete:
		return transport.MethodDelete
	default:
		return transport.MethodGet
	}
}

func (st Step) params() transport.Params {
	return transport.Params{URL: st.URL, Body: st.Body, Headers: st.Headers}
}

func (st Step) paths() responsecache.SubPaths {
	return responsecache.SubPaths{List: st.ListPath, Occurrence: st.OccurrencePath}
}

func (st Step) kind() cache.Kind {
	if st.Kind == "occurrence" {
		return cache.KindOccurrence
	}
	return cache.KindList
}

func (st Step) requestOptions() responsecache.RequestOptions {
	return responsecache.RequestOptions{
		ClearCache:      st.ClearCache,
		ClearLists:      st.ClearLists,
		ClearOccurrence: st.ClearOccurrence,
		OccurrenceID:    st.ID,
		OccurrencePath:  st.OccurrencePath,
	}
}
