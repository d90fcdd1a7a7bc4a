package dta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	cvHeader = "\tPt\tT\tVf\tIm\tVu\tSig\tAch\tIERange\tOver\n"
	cvUnits  = "\t#\ts\tV vs. Ref.\tA\tV\tV\tV\t#\tbits\n"
	cvRow    = "\t0\t0.05\t0.25\t1.2E-06\t0\t0.25\t0\t11\t...........\n"

	caHeader = "\tPt\tT\tVf\tIm\tVu\tSig\tAch\tIERange\tOver\n"
	caUnits  = "\t#\ts\tV vs. Ref.\tA\tV\tV\tV\t#\tbits\n"
	caRow    = "\t12\t1.2\t0.4\t-3.5E-09\t0\t0.4\t0\t9\t...........\n"
)

func shift(v float64) *float64 { return &v }

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{name: "sample_CV_01.DTA", want: KindCV},
		{name: "sample_CA_01.DTA", want: KindCA},
		{name: "CA_then_CV.DTA", want: KindCV},
		{name: "sample_cv.DTA", want: KindOther},
		{name: "EIS.DTA", want: KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.name))
		})
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "run_CV.DTACV", OutputName("run_CV.DTA"))
	assert.Equal(t, "run_CA.DTACA", OutputName("run_CA.DTA"))
	assert.Equal(t, "EIS.DTA", OutputName("EIS.DTA"))
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{name: "data row", line: cvRow, want: true},
		{name: "header row", line: cvHeader, want: true},
		{name: "exactly eight fields", line: "\t1\t2\t3\t4\t5\t6\t7\t8\n", want: true},
		{name: "seven fields", line: "\t1\t2\t3\t4\t5\t6\t7\n", want: false},
		{name: "empty field", line: "\t1\t2\t\t4\t5\t6\t7\t8\t9\n", want: false},
		{name: "no leading tab", line: "CURVE\tTABLE\t1\t2\t3\t4\t5\t6\t7\t8\n", want: false},
		{name: "missing newline", line: "\t1\t2\t3\t4\t5\t6\t7\t8", want: false},
		{name: "carriage return inside", line: "\t1\t2\t3\t4\t5\t6\t7\t8\r\n", want: false},
		{name: "trailing tab", line: "\t1\t2\t3\t4\t5\t6\t7\t8\t\n", want: false},
		{name: "preamble", line: "TAG\tCV\n", want: false},
		{name: "blank", line: "\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.line))
		})
	}
}

func TestConverterLine(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		kind   Kind
		line   string
		want   string
		wantOK bool
	}{
		{
			name:   "cv data keeps voltage verbatim without shift",
			kind:   KindCV,
			line:   cvRow,
			want:   "\t0.25\t1.20000E-006\n",
			wantOK: true,
		},
		{
			name:   "cv data in microamps",
			opts:   Options{Unit: UnitMicroAmp},
			kind:   KindCV,
			line:   cvRow,
			want:   "\t0.25\t1.20000E+000\n",
			wantOK: true,
		},
		{
			name:   "cv data with shift",
			opts:   Options{Unit: UnitAmp, Shift: shift(0.1)},
			kind:   KindCV,
			line:   cvRow,
			want:   "\t3.50000E-001\t1.20000E-006\n",
			wantOK: true,
		},
		{
			name:   "cv column names",
			opts:   Options{Unit: UnitMilliAmp, Shift: shift(0.1)},
			kind:   KindCV,
			line:   cvHeader,
			want:   "\tVoltage\tCurrent\n",
			wantOK: true,
		},
		{
			name:   "cv unit row",
			opts:   Options{Unit: UnitMilliAmp},
			kind:   KindCV,
			line:   cvUnits,
			want:   "\tV\tmA\n",
			wantOK: true,
		},
		{
			name:   "ca data",
			opts:   Options{Unit: UnitNanoAmp},
			kind:   KindCA,
			line:   caRow,
			want:   "\t1.2\t-3.50000E+000\n",
			wantOK: true,
		},
		{
			name:   "ca ignores shift",
			opts:   Options{Shift: shift(1)},
			kind:   KindCA,
			line:   caRow,
			want:   "\t1.2\t-3.50000E-009\n",
			wantOK: true,
		},
		{
			name:   "ca column names",
			kind:   KindCA,
			line:   caHeader,
			want:   "\tTime\tCurrent\n",
			wantOK: true,
		},
		{
			name:   "ca unit row",
			opts:   Options{Unit: UnitMicroAmp},
			kind:   KindCA,
			line:   caUnits,
			want:   "\ts\tuA\n",
			wantOK: true,
		},
		{
			name:   "cv shift on non numeric voltage is a unit row",
			opts:   Options{Shift: shift(0.5)},
			kind:   KindCV,
			line:   "\t0\t0.05\tbad\t1.2E-06\t0\t0.25\t0\t11\t...\n",
			want:   "\tV\tA\n",
			wantOK: true,
		},
		{
			name:   "other kinds keep every field",
			kind:   KindOther,
			line:   cvRow,
			want:   "\t" + cvRow + "\n",
			wantOK: true,
		},
		{
			name:   "preamble dropped",
			kind:   KindCV,
			line:   "NOTES\tNOTES\t1\tNotes...\n",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConverter(tt.opts)
			got, ok := conv.Line(tt.kind, tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewConverterCopiesShift(t *testing.T) {
	s := 0.2
	conv := NewConverter(Options{Shift: &s})
	s = 5

	got, ok := conv.Shift()
	assert.True(t, ok)
	assert.Equal(t, 0.2, got)
	assert.Equal(t, UnitAmp, conv.Unit())

	_, ok = NewConverter(Options{}).Shift()
	assert.False(t, ok)
}
