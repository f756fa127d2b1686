package module

import (
	"testing"

	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSplitter() *SplitterBase {
	return NewSplitterBase(
		"splitterA",
		types.NewDataKeySet("fastq"),
		types.NewDataKeySet("bam", "sample_name"),
		nil, nil,
	)
}

func TestSplitterBase_MakeSplit_DuplicateFails(t *testing.T) {
	s := newTestSplitter()
	require.NoError(t, s.MakeSplit("s1", nil))

	err := s.MakeSplit("s1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateSplit)
}

func TestSplitterBase_AddOutput_UnknownSplitFails(t *testing.T) {
	s := newTestSplitter()
	err := s.AddOutput("nope", "bam", "/tmp/a.bam", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSplit)
}

func TestSplitterBase_AddOutput_DuplicateKeyFails(t *testing.T) {
	s := newTestSplitter()
	require.NoError(t, s.MakeSplit("s1", nil))
	require.NoError(t, s.AddOutput("s1", "bam", "/tmp/a.bam", true))

	err := s.AddOutput("s1", "bam", "/tmp/b.bam", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateOutputKey)
}

func TestSplitterBase_AddOutput_WrapsPathIntoFileRef(t *testing.T) {
	s := newTestSplitter()
	require.NoError(t, s.MakeSplit("s1", nil))
	require.NoError(t, s.AddOutput("s1", "bam", "/tmp/a.bam", true))

	out, err := s.GetOutput("s1", "bam")
	require.NoError(t, err)
	ref, ok := out.(types.FileRef)
	require.True(t, ok)
	assert.Equal(t, "splitterA.s1.bam", ref.FileID)
	assert.Equal(t, types.DataKey("bam"), ref.FileType)
	assert.Equal(t, "/tmp/a.bam", ref.Path)
}

func TestSplitterBase_AddOutput_WrapsPathListRecursively(t *testing.T) {
	s := newTestSplitter()
	require.NoError(t, s.MakeSplit("s1", nil))
	require.NoError(t, s.AddOutput("s1", "bam", []string{"/tmp/a.bam", "/tmp/b.bam"}, true))

	out, err := s.GetOutput("s1", "bam")
	require.NoError(t, err)
	refs, ok := out.([]types.FileRef)
	require.True(t, ok)
	require.Len(t, refs, 2)
	for _, r := range refs {
		assert.Equal(t, "splitterA.s1.bam", r.FileID)
	}
	assert.Equal(t, "/tmp/a.bam", refs[0].Path)
	assert.Equal(t, "/tmp/b.bam", refs[1].Path)
}

func TestSplitterBase_AddOutput_NonPathValuePassedThrough(t *testing.T) {
	s := newTestSplitter()
	require.NoError(t, s.MakeSplit("s1", nil))
	require.NoError(t, s.AddOutput("s1", "sample_name", "NA12878", false))

	out, err := s.GetOutput("s1", "sample_name")
	require.NoError(t, err)
	assert.Equal(t, "NA12878", out)
}

func TestSplitterBase_SetOutput_RejectsUndeclaredKey(t *testing.T) {
	s := newTestSplitter()
	require.NoError(t, s.MakeSplit("s1", nil))

	err := s.SetOutput("s1", "not_declared", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndeclaredOutputKey)
}

func TestSplitterBase_SetOutput_RejectsUnknownSplit(t *testing.T) {
	s := newTestSplitter()
	err := s.SetOutput("nope", "bam", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSplit)
}

func TestSplitterBase_Splits_ReflectsVisibility(t *testing.T) {
	s := newTestSplitter()
	require.NoError(t, s.MakeSplit("s1", []string{"sampleA"}))
	require.NoError(t, s.MakeSplit("s2", nil))

	splits := s.Splits()
	require.Len(t, splits, 2)
	assert.Equal(t, []string{"sampleA"}, splits["s1"].VisibleSamples)
	assert.Nil(t, splits["s2"].VisibleSamples)
}
