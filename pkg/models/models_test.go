package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "true|followed", Decision{Matched: true, Action: ActionFollowed}.String())
	assert.Equal(t, "false|profile_load_fail", Decision{Action: ActionProfileLoadFail}.String())
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    Decision
		wantErr bool
	}{
		{in: "true|followed", want: Decision{Matched: true, Action: ActionFollowed}},
		{in: "True|no_action", want: Decision{Matched: true, Action: ActionNoAction}},
		{in: "False|profile_load_fail", want: Decision{Action: ActionProfileLoadFail}},
		{in: "followed", wantErr: true},
		{in: "maybe|followed", wantErr: true},
		{in: "true|unfollowed", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecisionFollowed(t *testing.T) {
	assert.True(t, Decision{Matched: true, Action: ActionFollowed}.Followed())
	assert.False(t, Decision{Matched: true, Action: ActionNoAction}.Followed())
	assert.False(t, Decision{Action: ActionProfileLoadFail}.Followed())
}

func TestQuota(t *testing.T) {
	q := &Quota{DailyCap: 2}
	assert.False(t, q.Exhausted())
	assert.Equal(t, 2, q.Remaining())

	q.TotalFollowed = 2
	assert.True(t, q.Exhausted())
	assert.Equal(t, 0, q.Remaining())
}

func TestSubjectCredentials(t *testing.T) {
	s := Subject{Username: "bot"}
	assert.False(t, s.HasCredentials())
	s.Password = "pw"
	assert.True(t, s.HasCredentials())
	assert.Equal(t, "", Subject{}.TokenString())
	assert.Equal(t, "abc;xyz", Subject{Tokens: []string{"abc", "xyz"}}.TokenString())
}
