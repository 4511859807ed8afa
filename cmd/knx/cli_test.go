// Licensed under the MIT license which can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunDump_RequiresGatewayUnlessRouter(t *testing.T) {
	err := runDump(nil)
	assert.Error(t, err)
}

func TestRunReadProperty_RequiresGateway(t *testing.T) {
	err := runReadProperty(nil)
	assert.Error(t, err)
}

func TestRunWriteProperty_RequiresGateway(t *testing.T) {
	err := runWriteProperty(nil)
	assert.Error(t, err)
}

func TestRunWriteProperty_RejectsInvalidHex(t *testing.T) {
	err := runWriteProperty([]string{"-gateway", "127.0.0.1:3671", "-data", "not-hex"})
	assert.Error(t, err)
}
