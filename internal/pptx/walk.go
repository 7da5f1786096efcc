package pptx

import (
	"regexp"
	"strings"
)

// transformFunc receives the concatenated text of one unit (a paragraph, a
// chart title paragraph, or a picture alt text) and returns its replacement.
// Extraction and replacement reuse the same walk with different funcs, so the
// unit order of the two passes is identical by construction.
type transformFunc func(text string) (string, error)

var (
	reParagraph  = regexp.MustCompile(`(?s)(<a:p(?:\s[^>]*)?>)(.*?)(</a:p>)`)
	reRun        = regexp.MustCompile(`(?s)<a:r(?:\s[^>]*)?>.*?</a:r>`)
	reRunText    = regexp.MustCompile(`(?s)<a:t(?:\s[^>]*)?>(.*?)</a:t>`)
	reRunProps   = regexp.MustCompile(`(?s)<a:rPr(?:\s[^>]*)?/>|<a:rPr(?:\s[^>]*)?>.*?</a:rPr>`)
	reParaProps  = regexp.MustCompile(`(?s)<a:pPr(?:\s[^>]*)?/>|<a:pPr(?:\s[^>]*)?>.*?</a:pPr>`)
	reEndRunPr   = regexp.MustCompile(`(?s)<a:endParaRPr(?:\s[^>]*)?/>|<a:endParaRPr(?:\s[^>]*)?>.*?</a:endParaRPr>`)
	reBodyPr     = regexp.MustCompile(`(?s)<a:bodyPr(?:\s[^>]*)?/>|<a:bodyPr(?:\s[^>]*)?>.*?</a:bodyPr>`)
	reAutofit    = regexp.MustCompile(`<a:normAutofit(?:\s[^>]*)?/>|<a:noAutofit\s*/>|<a:spAutoFit\s*/>`)
	reWrapAttr   = regexp.MustCompile(`\bwrap="[^"]*"`)
	reTypeface   = regexp.MustCompile(`(<a:(?:latin|ea)\b[^>]*\btypeface=")[^"]*(")`)
	reChartTitle = regexp.MustCompile(`(?s)<c:title(?:\s[^>]*)?>.*?</c:title>`)
	rePicture    = regexp.MustCompile(`(?s)<p:pic(?:\s[^>]*)?>.*?</p:pic>`)
	reAltText    = regexp.MustCompile(`(<p:cNvPr\b[^>]*\bdescr=")([^"]*)(")`)
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

var xmlUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

// walkParagraphs visits every non-empty paragraph in document order. With
// mutate false the input is returned untouched and tf only observes texts;
// with mutate true each paragraph is rebuilt as a single run styled for the
// target font.
func walkParagraphs(data []byte, font string, mutate bool, tf transformFunc) ([]byte, error) {
	var walkErr error
	out := reParagraph.ReplaceAllStringFunc(string(data), func(para string) string {
		if walkErr != nil {
			return para
		}
		m := reParagraph.FindStringSubmatch(para)
		open, inner, closing := m[1], m[2], m[3]

		runs := reRun.FindAllString(inner, -1)
		var text strings.Builder
		for _, run := range runs {
			for _, tm := range reRunText.FindAllStringSubmatch(run, -1) {
				text.WriteString(xmlUnescaper.Replace(tm[1]))
			}
		}
		if text.Len() == 0 {
			return para
		}

		replaced, err := tf(text.String())
		if err != nil {
			walkErr = err
			return para
		}
		if !mutate {
			return para
		}

		var props string
		if len(runs) > 0 {
			props = reRunProps.FindString(runs[0])
		}
		props = restyleRunProps(props, font)

		var b strings.Builder
		b.WriteString(open)
		b.WriteString(reParaProps.FindString(inner))
		b.WriteString("<a:r>")
		b.WriteString(props)
		b.WriteString("<a:t>")
		b.WriteString(xmlEscaper.Replace(replaced))
		b.WriteString("</a:t></a:r>")
		b.WriteString(reEndRunPr.FindString(inner))
		b.WriteString(closing)
		return b.String()
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if !mutate {
		return data, nil
	}
	return []byte(out), nil
}

// restyleRunProps keeps the first run's bold/italic/underline/size attributes,
// forces the target language's default typeface, and falls back to a black
// solid fill when the run carries no color.
func restyleRunProps(props, font string) string {
	if props == "" {
		return `<a:rPr dirty="0"><a:solidFill><a:srgbClr val="000000"/></a:solidFill>` +
			`<a:latin typeface="` + font + `"/><a:ea typeface="` + font + `"/></a:rPr>`
	}

	// Normalize the self-closing form so children can be added.
	if strings.HasSuffix(props, "/>") {
		props = props[:len(props)-2] + "></a:rPr>"
	}

	if !strings.Contains(props, "<a:solidFill") {
		end := strings.Index(props, ">")
		props = props[:end+1] + `<a:solidFill><a:srgbClr val="000000"/></a:solidFill>` + props[end+1:]
	}

	if reTypeface.MatchString(props) {
		props = reTypeface.ReplaceAllString(props, "${1}"+font+"${2}")
	}
	if !strings.Contains(props, "<a:latin") {
		props = strings.Replace(props, "</a:rPr>", `<a:latin typeface="`+font+`"/></a:rPr>`, 1)
	}
	if !strings.Contains(props, "<a:ea") {
		props = strings.Replace(props, "</a:rPr>", `<a:ea typeface="`+font+`"/></a:rPr>`, 1)
	}
	return props
}

// rewriteBodyPr turns on word wrap and shape autofit for every text body so
// replaced text resizes to its shape instead of overflowing it.
func rewriteBodyPr(data []byte) []byte {
	out := reBodyPr.ReplaceAllStringFunc(string(data), func(body string) string {
		if strings.HasSuffix(body, "/>") {
			body = body[:len(body)-2] + "></a:bodyPr>"
		}
		body = reAutofit.ReplaceAllString(body, "")
		if reWrapAttr.MatchString(body) {
			body = reWrapAttr.ReplaceAllString(body, `wrap="square"`)
		} else {
			body = strings.Replace(body, "<a:bodyPr", `<a:bodyPr wrap="square"`, 1)
		}
		return strings.Replace(body, "</a:bodyPr>", "<a:spAutoFit/></a:bodyPr>", 1)
	})
	return []byte(out)
}

// walkPictureAlts visits the alt text of every picture in document order.
func walkPictureAlts(data []byte, mutate bool, tf transformFunc) ([]byte, error) {
	var walkErr error
	out := rePicture.ReplaceAllStringFunc(string(data), func(pic string) string {
		if walkErr != nil {
			return pic
		}
		return reAltText.ReplaceAllStringFunc(pic, func(attr string) string {
			if walkErr != nil {
				return attr
			}
			m := reAltText.FindStringSubmatch(attr)
			alt := xmlUnescaper.Replace(m[2])
			if alt == "" {
				return attr
			}
			replaced, err := tf(alt)
			if err != nil {
				walkErr = err
				return attr
			}
			if !mutate {
				return attr
			}
			return m[1] + xmlEscaper.Replace(replaced) + m[3]
		})
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if !mutate {
		return data, nil
	}
	return []byte(out), nil
}

// walkChartTitle visits only the chart's title rich text, leaving category
// and series data untouched.
func walkChartTitle(data []byte, font string, mutate bool, tf transformFunc) ([]byte, error) {
	var walkErr error
	out := reChartTitle.ReplaceAllStringFunc(string(data), func(title string) string {
		if walkErr != nil {
			return title
		}
		rewritten, err := walkParagraphs([]byte(title), font, mutate, tf)
		if err != nil {
			walkErr = err
			return title
		}
		return string(rewritten)
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if !mutate {
		return data, nil
	}
	return []byte(out), nil
}
