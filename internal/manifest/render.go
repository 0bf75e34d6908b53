package manifest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MPD header constants. The profile and buffer values match what the
// downstream player's DASH handler expects; do not reorder attributes, the
// output is compared byte-for-byte in tests.
const (
	mpdProfile    = "urn:mpeg:dash:profile:isoff-main:2011"
	mpdRoleScheme = "urn:mpeg:DASH:role:2011"
	audioScheme   = "urn:mpeg:dash:23003:3:audio_channel_configuration:2011"
	// audioChannels is declared as 2 regardless of the source's actual
	// channel count. The consuming player tolerates this; confirm its
	// requirements before changing.
	audioChannels = "2"
)

// Render serializes the document as DASH-MPD text. Representation URLs are
// escaped at build time, so rendering is pure concatenation.
func Render(doc *Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<MPD minBufferTime="PT1.5S" mediaPresentationDuration="PT%sS" type="static" profiles="%s">`,
		formatFloat(doc.Duration), mpdProfile)
	b.WriteString("\n<Period>")

	for _, set := range doc.AdaptationSets {
		if set.ContentType == "text" {
			renderTextSet(&b, &set)
			continue
		}
		renderMediaSet(&b, &set)
	}

	b.WriteString("\n</Period>\n</MPD>")
	return b.String()
}

// WriteTo renders the document to the given writer.
func WriteTo(w io.Writer, doc *Document) error {
	if _, err := io.WriteString(w, Render(doc)); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// renderMediaSet emits an audio or video adaptation set with the main Role
// and its representations.
func renderMediaSet(b *strings.Builder, set *AdaptationSet) {
	fmt.Fprintf(b, "\n<AdaptationSet id=\"%s\" mimeType=\"%s\" lang=\"%s\"", set.ID, set.MimeType, set.Language)
	if set.Original {
		b.WriteString(` original="true"`)
	}
	if set.Default {
		b.WriteString(` default="true"`)
	}
	fmt.Fprintf(b, `><Role schemeIdUri="%s" value="main"/>`, mpdRoleScheme)

	for i := range set.Representations {
		rep := &set.Representations[i]
		fmt.Fprintf(b, "\n<Representation id=\"%s\" codecs=\"%s\" bandwidth=\"%d\"", rep.ID, rep.Codec, rep.Bandwidth)
		if rep.HasVideo {
			fmt.Fprintf(b, ` width="%d" height="%d" frameRate="%s"`, rep.Width, rep.Height, formatFloat(rep.FrameRate))
		}
		b.WriteString(">")
		if rep.HasAudio {
			fmt.Fprintf(b, "\n<AudioChannelConfiguration schemeIdUri=\"%s\" value=\"%s\"/>", audioScheme, audioChannels)
		}
		fmt.Fprintf(b, "\n<BaseURL>%s</BaseURL>\n<SegmentBase indexRange=\"%d-%d\">\n<Initialization range=\"%d-%d\" />\n</SegmentBase>",
			rep.MediaURL, rep.IndexRange.Start, rep.IndexRange.End, rep.InitRange.Start, rep.InitRange.End)
		b.WriteString("\n</Representation>")
	}
	b.WriteString("\n</AdaptationSet>")
}

// renderTextSet emits a caption adaptation set: a single BaseURL
// representation with no segment index.
func renderTextSet(b *strings.Builder, set *AdaptationSet) {
	fmt.Fprintf(b, "\n<AdaptationSet id=\"%s\" contentType=\"text\" mimeType=\"%s\" lang=\"%s\">", set.ID, set.MimeType, set.Language)
	for i := range set.Representations {
		rep := &set.Representations[i]
		fmt.Fprintf(b, "\n<Representation id=\"%s\">\n<BaseURL>%s</BaseURL>\n</Representation>", rep.ID, rep.MediaURL)
	}
	b.WriteString("\n</AdaptationSet>")
}

// formatFloat renders a float without a trailing ".0" for whole values,
// matching the extractor's own notation (120, 23.976).
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
