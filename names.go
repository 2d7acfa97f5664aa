package nasc

import (
	"strings"

	"go.uber.org/zap"

	"github.com/nascore/nasc/singleton"
)

// FactoryDereferencePrefix, when leading a requested name, asks the façade
// to return the factory-bean itself rather than routing through it to its
// product.
const FactoryDereferencePrefix = "&"

// transformedName is a requested name split into its dereference intent and
// the bare name to resolve.
type transformedName struct {
	bare           string
	wantsFactory   bool
}

func splitFactoryPrefix(requested string) transformedName {
	if strings.HasPrefix(requested, FactoryDereferencePrefix) {
		return transformedName{bare: requested[len(FactoryDereferencePrefix):], wantsFactory: true}
	}
	return transformedName{bare: requested}
}

// creationChain is the per-top-level-call state threaded through recursive
// resolution: the set of names already on this call's stack (the
// exclusions set of §4.2.2, doubling as the façade's own cycle detector for
// prototype- and custom-scoped beans that never touch the singleton
// registry), and the suppressed-error buffer owned by this call.
type creationChain struct {
	names      singleton.Set
	suppressed *suppressionBuffer
	logger     *zap.Logger
}

func newCreationChain(logger *zap.Logger) *creationChain {
	return &creationChain{suppressed: newSuppressionBuffer(), logger: logger}
}

func (c *creationChain) with(name string) *creationChain {
	return &creationChain{names: c.names.With(name), suppressed: c.suppressed, logger: c.logger}
}

func (c *creationChain) contains(name string) bool {
	return c.names.Contains(name)
}
