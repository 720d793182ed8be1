package environment

import "time"

// Keys under which framework configuration is stored.
const (
	KeyJSON          = "json"
	KeyTrace         = "trace"
	KeyRouting       = "routing"
	KeyStaticContent = "static-content"
	KeyGlobalization = "globalization"
	KeyViews         = "views"
	KeyDiagnostics   = "diagnostics"
)

// ── Configuration values ─────────────────────────────────────────────────────

type JSONConfiguration struct {
	DefaultCharset string
	RetainCasing   bool
}

type TraceConfiguration struct {
	Enabled bool
	// DisplayErrorTraces includes the error text in 500 responses.
	DisplayErrorTraces bool
}

type RoutingConfiguration struct {
	// DisableMethodNotAllowedResponses answers 404 instead of 405 when
	// the path matches but the method does not.
	DisableMethodNotAllowedResponses bool
}

type StaticContentConfiguration struct {
	// SafePaths are the only directories static content is served from.
	// Empty means any directory the conventions name.
	SafePaths []string
}

type GlobalizationConfiguration struct {
	SupportedCultures []string
	DefaultCulture    string
}

type ViewConfiguration struct {
	RuntimeViewDiscovery bool
	RuntimeViewUpdates   bool
}

type DiagnosticsConfiguration struct {
	Enabled        bool
	Path           string
	SlidingTimeout time.Duration
}

var (
	defaultJSON          = JSONConfiguration{DefaultCharset: "utf-8"}
	defaultTrace         = TraceConfiguration{}
	defaultRouting       = RoutingConfiguration{}
	defaultStaticContent = StaticContentConfiguration{}
	defaultGlobalization = GlobalizationConfiguration{SupportedCultures: []string{"en-US"}, DefaultCulture: "en-US"}
	defaultViews         = ViewConfiguration{}
	defaultDiagnostics   = DiagnosticsConfiguration{Path: "/_diagnostics", SlidingTimeout: 15 * time.Minute}
)

// ── Providers ────────────────────────────────────────────────────────────────

// DefaultConfigurationProvider supplies the value a key takes when the
// application does not set it.
type DefaultConfigurationProvider interface {
	Key() string
	DefaultConfiguration() any
}

type JSONProvider struct{}

func NewJSONProvider() *JSONProvider            { return &JSONProvider{} }
func (*JSONProvider) Key() string               { return KeyJSON }
func (*JSONProvider) DefaultConfiguration() any { return defaultJSON }

type TraceProvider struct{}

func NewTraceProvider() *TraceProvider           { return &TraceProvider{} }
func (*TraceProvider) Key() string               { return KeyTrace }
func (*TraceProvider) DefaultConfiguration() any { return defaultTrace }

type RoutingProvider struct{}

func NewRoutingProvider() *RoutingProvider         { return &RoutingProvider{} }
func (*RoutingProvider) Key() string               { return KeyRouting }
func (*RoutingProvider) DefaultConfiguration() any { return defaultRouting }

type StaticContentProvider struct{}

func NewStaticContentProvider() *StaticContentProvider   { return &StaticContentProvider{} }
func (*StaticContentProvider) Key() string               { return KeyStaticContent }
func (*StaticContentProvider) DefaultConfiguration() any { return defaultStaticContent }

type GlobalizationProvider struct{}

func NewGlobalizationProvider() *GlobalizationProvider   { return &GlobalizationProvider{} }
func (*GlobalizationProvider) Key() string               { return KeyGlobalization }
func (*GlobalizationProvider) DefaultConfiguration() any { return defaultGlobalization }

type ViewProvider struct{}

func NewViewProvider() *ViewProvider            { return &ViewProvider{} }
func (*ViewProvider) Key() string               { return KeyViews }
func (*ViewProvider) DefaultConfiguration() any { return defaultViews }

type DiagnosticsProvider struct{}

func NewDiagnosticsProvider() *DiagnosticsProvider     { return &DiagnosticsProvider{} }
func (*DiagnosticsProvider) Key() string               { return KeyDiagnostics }
func (*DiagnosticsProvider) DefaultConfiguration() any { return defaultDiagnostics }

// DefaultProviders lists the constructors of every built-in provider, in
// the order the bootstrapper registers them.
func DefaultProviders() []any {
	return []any{
		NewDiagnosticsProvider,
		NewJSONProvider,
		NewGlobalizationProvider,
		NewRoutingProvider,
		NewStaticContentProvider,
		NewTraceProvider,
		NewViewProvider,
	}
}
