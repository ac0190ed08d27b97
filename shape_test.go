package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapShapeFieldRoundTrip(t *testing.T) {
	s := newMapShape().set("Name", "bucket")

	v, ok := s.Field("Name")
	require.True(t, ok)
	require.Equal(t, "bucket", v)

	_, ok = s.Field("Missing")
	require.False(t, ok)
}

func TestMapShapeSetFieldOverwrites(t *testing.T) {
	s := newMapShape()
	require.NoError(t, s.SetField("Count", 1))
	require.NoError(t, s.SetField("Count", 2))

	v, _ := s.Field("Count")
	require.Equal(t, 2, v)
}

func TestMapShapePayloadPathDefaultsToUnset(t *testing.T) {
	s := newMapShape()
	_, ok := s.PayloadPath()
	require.False(t, ok)

	s.withPayload("Body")
	name, ok := s.PayloadPath()
	require.True(t, ok)
	require.Equal(t, "Body", name)
}

func TestMapShapeMembersAccumulate(t *testing.T) {
	s := newMapShape().
		withMember(Member{Label: "A", Type: TypeScalar}).
		withMember(Member{Label: "B", Type: TypeList})

	require.Len(t, s.Members(), 2)
	require.Equal(t, "A", s.Members()[0].Label)
	require.Equal(t, TypeList, s.Members()[1].Type)
}

func TestLocationAndMemberZeroValues(t *testing.T) {
	var m Member
	require.Nil(t, m.Location)
	require.Equal(t, TypeScalar, m.Type)
}
