package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
)

func TestForMimeNormalizesParameters(t *testing.T) {
	e, err := ForMime("text/plain; charset=utf-8")
	require.NoError(t, err)
	require.NotNil(t, e)

	e, err = ForMime("TEXT/CSV")
	require.NoError(t, err)
	require.NotNil(t, e)
}

func TestForMimeUnsupported(t *testing.T) {
	_, err := ForMime("application/x-msdownload")
	require.ErrorIs(t, err, appErr.ErrUnsupportedFormat)
	require.False(t, Supported("application/x-msdownload"))
}

func TestPlainTextExtract(t *testing.T) {
	res, err := plainTextExtractor{}.Extract([]byte("hello listings"))
	require.NoError(t, err)
	require.Equal(t, "hello listings", res.Text())

	_, err = plainTextExtractor{}.Extract([]byte{0xff, 0xfe, 0x01})
	require.Error(t, err)
}

func TestMarkdownExtractStripsFormatting(t *testing.T) {
	md := []byte("# Marina Heights\n\nA **luxury** tower with [brochure](http://x) links.\n\n- 2BR units\n- 3BR units\n")
	res, err := markdownExtractor{}.Extract(md)
	require.NoError(t, err)
	text := res.Text()
	require.Contains(t, text, "Marina Heights")
	require.Contains(t, text, "luxury")
	require.Contains(t, text, "2BR units")
	require.NotContains(t, text, "#")
	require.NotContains(t, text, "**")
	require.NotContains(t, text, "](")
}

func TestCSVExtractJoinsRows(t *testing.T) {
	data := []byte("unit,price,beds\n1204,1850000,2\n1301,2100000,3\n")
	res, err := csvExtractor{}.Extract(data)
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	require.Contains(t, res.Pages[0].Text, "unit\tprice\tbeds")
	require.Contains(t, res.Pages[0].Text, "1204\t1850000\t2")
}

func TestCSVExtractRaggedRows(t *testing.T) {
	data := []byte("a,b,c\nd,e\n")
	res, err := csvExtractor{}.Extract(data)
	require.NoError(t, err)
	require.Contains(t, res.Pages[0].Text, "d\te")
}
