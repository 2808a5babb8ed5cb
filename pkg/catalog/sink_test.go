package catalog_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/localekeys/pkg/catalog"
)

func TestSinkFuncs_NilFieldsAreSkipped(t *testing.T) {
	t.Parallel()

	var parsed []string

	sink := catalog.SinkFuncs{OnParsed: func(p string) { parsed = append(parsed, p) }}

	assert.NotPanics(t, func() { sink.Start([]string{"/en.ts"}) })
	sink.Parsed("/en.ts")
	assert.Equal(t, []string{"/en.ts"}, parsed)

	assert.NotPanics(t, func() {
		catalog.SinkFuncs{}.Parsed("/en.ts")
		catalog.NopSink{}.Start(nil)
		catalog.NopSink{}.Parsed("/en.ts")
	})
}

func TestEventKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "START", catalog.EventStart.String())
	assert.Equal(t, "PARSED", catalog.EventParsed.String())
	assert.Equal(t, "UNKNOWN", catalog.EventKind(9).String())
}

func TestChannelSink_ProducersNeverBlock(t *testing.T) {
	t.Parallel()

	sink := catalog.NewChannelSink()

	sink.Start([]string{"/a.ts", "/b.ts"})

	var wg sync.WaitGroup
	for _, p := range []string{"/a.ts", "/b.ts"} {
		wg.Add(1)

		go func() {
			defer wg.Done()
			sink.Parsed(p)
		}()
	}

	// Nobody reads yet; producers still return.
	wg.Wait()
	sink.Close()
	sink.Parsed("/late.ts")

	var events []catalog.Event
	for ev := range sink.Events() {
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	assert.Equal(t, catalog.Event{Kind: catalog.EventStart, Paths: []string{"/a.ts", "/b.ts"}}, events[0])
	assert.ElementsMatch(t, []string{"/a.ts", "/b.ts"}, []string{events[1].Path, events[2].Path})
}

func TestChannelSink_StreamsParseLocales(t *testing.T) {
	t.Parallel()

	sink := catalog.NewChannelSink()
	b := catalog.NewBuilder(catalog.Deps{
		Discoverer: fakeDiscoverer{groups: [][]string{{"/en.ts"}, {"/de.ts", "/fr.ts"}}},
		Extractor:  &fakeExtractor{},
		Workers:    2,
	})

	done := make(chan error, 1)

	go func() {
		_, err := b.ParseLocales(context.Background(), sink)
		sink.Close()
		done <- err
	}()

	var kinds []catalog.EventKind
	for ev := range sink.Events() {
		kinds = append(kinds, ev.Kind)
	}

	require.NoError(t, <-done)
	assert.Equal(t, []catalog.EventKind{
		catalog.EventStart, catalog.EventParsed, catalog.EventParsed, catalog.EventParsed,
	}, kinds)
}
