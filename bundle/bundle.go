package bundle

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/loctree/fluent/fluent"
	"github.com/loctree/fluent/fluenterr"
	"github.com/loctree/fluent/fnreg"
)

// Opener loads the raw .ftl source for path, relative to the manifest.
type Opener func(path string) (io.Reader, error)

// OpenResult is the value an AsyncOpener's channel delivers: exactly one
// of Reader or Err is meaningful.
type OpenResult struct {
	Reader io.Reader
	Err    error
}

// AsyncOpener is Opener's channel-based counterpart, for callers loading
// locale files over a network or other cancellable medium: it returns
// immediately with a channel that delivers exactly one OpenResult.
type AsyncOpener func(path string) <-chan OpenResult

// Bundle resolves locale requests against a Manifest, loading and caching
// each resolved locale's LocalizationFile on first use.
type Bundle struct {
	manifest  *Manifest
	open      Opener
	asyncOpen AsyncOpener
	functions *fnreg.Registry

	mu     sync.RWMutex
	loaded map[string]*fluent.LocalizationFile

	group singleflight.Group
}

// New builds a Bundle over manifest, loading locale files with open (used
// by LoadLocale) and asyncOpen (used by LoadLocaleAsync; may be nil if the
// caller never calls LoadLocaleAsync). functions, if non-nil, is made
// available to every loaded locale's messages and terms.
func New(manifest *Manifest, open Opener, asyncOpen AsyncOpener, functions *fnreg.Registry) *Bundle {
	return &Bundle{
		manifest:  manifest,
		open:      open,
		asyncOpen: asyncOpen,
		functions: functions,
		loaded:    make(map[string]*fluent.LocalizationFile),
	}
}

func (b *Bundle) cached(code string) (*fluent.LocalizationFile, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lf, ok := b.loaded[code]

	return lf, ok
}

func (b *Bundle) store(code string, lf *fluent.LocalizationFile) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.loaded[code] = lf
}

func defaultsToVariables(defaults map[string]DefaultValue) map[string]fnreg.Value {
	vars := make(map[string]fnreg.Value, len(defaults))

	for k, v := range defaults {
		switch v.Kind {
		case DefaultLong:
			vars[k] = fnreg.NumberValue(float64(v.Long))
		case DefaultDouble:
			vars[k] = fnreg.NumberValue(v.Double)
		case DefaultBool:
			if v.Bool {
				vars[k] = fnreg.StringValue("true")
			} else {
				vars[k] = fnreg.StringValue("false")
			}
		default:
			vars[k] = fnreg.StringValue(v.Str)
		}
	}

	return vars
}

func (b *Bundle) build(code string, entry LocaleEntry, r io.Reader) (*fluent.LocalizationFile, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &fluenterr.BundleError{Message: "failed to read " + entry.Path + ": " + err.Error()}
	}

	opts := fluent.Options{
		Functions:       b.functions,
		GlobalVariables: defaultsToVariables(b.manifest.defaultsFor(entry)),
	}

	return fluent.Parse(entry.Path, string(raw), opts)
}

// LoadLocale resolves locale (exact code, alias, or falling back to the
// manifest's default_locale) and returns its LocalizationFile, parsing and
// caching it on first request. Concurrent requests for the same resolved
// locale are coalesced so the file is only read and parsed once.
func (b *Bundle) LoadLocale(locale string) (*fluent.LocalizationFile, error) {
	code, entry, ok := b.manifest.resolveLocale(locale)
	if !ok {
		return nil, &fluenterr.BundleError{Message: "no locale could be resolved for " + locale}
	}

	if lf, ok := b.cached(code); ok {
		return lf, nil
	}

	v, err, _ := b.group.Do(code, func() (interface{}, error) {
		if lf, ok := b.cached(code); ok {
			return lf, nil
		}

		r, err := b.open(entry.Path)
		if err != nil {
			return nil, &fluenterr.BundleError{Message: "failed to open " + entry.Path + ": " + err.Error()}
		}

		lf, err := b.build(code, entry, r)
		if err != nil {
			return nil, err
		}

		b.store(code, lf)

		return lf, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*fluent.LocalizationFile), nil
}

// LoadLocaleAsync is LoadLocale's channel-based counterpart, using the
// AsyncOpener supplied to New. It returns a BundleError if no AsyncOpener
// was configured. ctx cancels the wait on the opener's result channel; a
// cancellation this way never stores a partial LocalizationFile.
func (b *Bundle) LoadLocaleAsync(ctx context.Context, locale string) (*fluent.LocalizationFile, error) {
	if b.asyncOpen == nil {
		return nil, &fluenterr.BundleError{Message: "bundle has no AsyncOpener configured"}
	}

	code, entry, ok := b.manifest.resolveLocale(locale)
	if !ok {
		return nil, &fluenterr.BundleError{Message: "no locale could be resolved for " + locale}
	}

	if lf, ok := b.cached(code); ok {
		return lf, nil
	}

	type result struct {
		lf  *fluent.LocalizationFile
		err error
	}

	done := make(chan result, 1)

	go func() {
		v, err, _ := b.group.Do(code, func() (interface{}, error) {
			if lf, ok := b.cached(code); ok {
				return lf, nil
			}

			var r io.Reader

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case res := <-b.asyncOpen(entry.Path):
				if res.Err != nil {
					return nil, &fluenterr.BundleError{Message: "failed to open " + entry.Path + ": " + res.Err.Error()}
				}

				r = res.Reader
			}

			lf, err := b.build(code, entry, r)
			if err != nil {
				return nil, err
			}

			b.store(code, lf)

			return lf, nil
		})

		if err != nil {
			done <- result{err: err}
			return
		}

		done <- result{lf: v.(*fluent.LocalizationFile)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.lf, r.err
	}
}
