/**
 * Copyright 2026 The asyncfix Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexveden/asyncfix/session"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestCreateOrLoadFreshSession(t *testing.T) {
	j := openTestJournal(t)
	s, err := j.CreateOrLoad("SERVER", "CLIENT")
	require.NoError(t, err)
	assert.Equal(t, 1, s.NextNumOut())
	assert.Equal(t, 1, s.NextNumIn())
}

func TestPersistAndRecoverMessages(t *testing.T) {
	j := openTestJournal(t)
	s, err := j.CreateOrLoad("SERVER", "CLIENT")
	require.NoError(t, err)

	raw1 := []byte("8=FIX.4.4\x019=5\x0135=0\x0134=1\x0110=000\x01")
	raw2 := []byte("8=FIX.4.4\x019=5\x0135=0\x0134=2\x0110=000\x01")

	require.NoError(t, j.PersistMsg(raw1, s, session.Outbound))
	require.NoError(t, j.PersistMsg(raw2, s, session.Outbound))

	msgs, err := j.RecoverMessages(s, session.Outbound, 1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, raw1, msgs[0])
	assert.Equal(t, raw2, msgs[1])
}

func TestPersistDuplicateSeqRejected(t *testing.T) {
	j := openTestJournal(t)
	s, err := j.CreateOrLoad("SERVER", "CLIENT")
	require.NoError(t, err)

	raw := []byte("8=FIX.4.4\x019=5\x0135=0\x0134=1\x0110=000\x01")
	require.NoError(t, j.PersistMsg(raw, s, session.Outbound))
	assert.Error(t, j.PersistMsg(raw, s, session.Outbound))
}

func TestSetSeqNumTruncatesMessages(t *testing.T) {
	j := openTestJournal(t)
	s, err := j.CreateOrLoad("SERVER", "CLIENT")
	require.NoError(t, err)

	raw1 := []byte("8=FIX.4.4\x019=5\x0135=0\x0134=1\x0110=000\x01")
	raw2 := []byte("8=FIX.4.4\x019=5\x0135=0\x0134=2\x0110=000\x01")
	require.NoError(t, j.PersistMsg(raw1, s, session.Outbound))
	require.NoError(t, j.PersistMsg(raw2, s, session.Outbound))

	one := 1
	require.NoError(t, j.SetSeqNum(s, &one, nil))

	msgs, err := j.RecoverMessages(s, session.Outbound, 1, 2)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSessionsListsPersisted(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.CreateOrLoad("SERVER", "CLIENT")
	require.NoError(t, err)

	all, err := j.Sessions()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
