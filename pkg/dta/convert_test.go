package dta

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cvFile = "EXPLAIN\n" +
	"TAG\tCV\n" +
	"TITLE\tLABEL\tCyclic Voltammetry\tTest &Identifier\n" +
	"CURVE1\tTABLE\t3\n" +
	cvHeader +
	cvUnits +
	cvRow +
	"\t1\t0.1\t0.26\t1.3E-06\t0\t0.26\t0\t11\t...........\n" +
	"\t2\t0.15\t0.27"

func TestConvert(t *testing.T) {
	conv := NewConverter(Options{Unit: UnitMicroAmp})

	var out bytes.Buffer
	stats, err := conv.Convert(context.Background(), KindCV, strings.NewReader(cvFile), &out)
	require.NoError(t, err)

	assert.Equal(t,
		"\tVoltage\tCurrent\n"+
			"\tV\tuA\n"+
			"\t0.25\t1.20000E+000\n"+
			"\t0.26\t1.30000E+000\n",
		out.String())

	assert.Equal(t, int64(9), stats.LinesRead)
	assert.Equal(t, int64(4), stats.LinesWritten)
	assert.Equal(t, int64(2), stats.HeaderLines)
	assert.Equal(t, int64(2), stats.DataLines)
	assert.Equal(t, int64(len(cvFile)), stats.BytesRead)
	assert.Equal(t, int64(out.Len()), stats.BytesWritten)
}

func TestConvertCRLF(t *testing.T) {
	in := strings.ReplaceAll(cvHeader+cvRow, "\n", "\r\n")

	var out bytes.Buffer
	_, err := NewConverter(Options{}).Convert(context.Background(), KindCV, strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, "\tVoltage\tCurrent\n\t0.25\t1.20000E-006\n", out.String())
}

func TestConvertCR(t *testing.T) {
	in := strings.ReplaceAll(cvHeader+cvRow, "\n", "\r")

	var out bytes.Buffer
	stats, err := NewConverter(Options{}).Convert(context.Background(), KindCV, strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, "\tVoltage\tCurrent\n\t0.25\t1.20000E-006\n", out.String())
	assert.Equal(t, int64(2), stats.LinesRead)
	assert.Equal(t, int64(2), stats.LinesWritten)
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  []string
	}{
		{name: "empty", chunk: "", want: nil},
		{name: "lf", chunk: "a\tb\n", want: []string{"a\tb\n"}},
		{name: "unterminated", chunk: "a\tb", want: []string{"a\tb"}},
		{name: "crlf", chunk: "a\r\n", want: []string{"a\n"}},
		{name: "lone cr", chunk: "a\rb\rc\n", want: []string{"a\n", "b\n", "c\n"}},
		{name: "cr then unterminated", chunk: "a\rb", want: []string{"a\n", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitLines(tt.chunk))
		})
	}
}

func TestConvertCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := NewConverter(Options{}).Convert(ctx, KindCV, strings.NewReader(cvFile), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestConvertLongLine(t *testing.T) {
	long := "\t" + strings.Repeat("x", 200000)
	line := long + "\t1\t2\t3\t4\t5\t6\t7\n"

	var out bytes.Buffer
	stats, err := NewConverter(Options{}).Convert(context.Background(), KindOther, strings.NewReader(line), &out)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.LinesWritten)
	assert.Equal(t, "\t"+line+"\n", out.String())
}

func TestConvertFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data/output_data", 0755))
	require.NoError(t, afero.WriteFile(fs, "/data/run_CV.DTA", []byte(cvFile), 0644))

	conv := NewConverter(Options{Unit: UnitMicroAmp})
	res, err := conv.ConvertFile(context.Background(), fs, "/data/run_CV.DTA", "/data/output_data")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/data/output_data", "run_CV.DTACV"), res.Output)
	assert.Equal(t, KindCV, res.Kind)
	assert.Equal(t, int64(4), res.Stats.LinesWritten)

	content, err := afero.ReadFile(fs, res.Output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "\tVoltage\tCurrent\n"))
}

func TestConvertFileMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0755))

	_, err := NewConverter(Options{}).ConvertFile(context.Background(), fs, "/nope_CV.DTA", "/out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening /nope_CV.DTA")
}
