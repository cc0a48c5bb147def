//go:build stakedebug

package rewards

const debugAsserts = true
