// Copyright 2026 Athena Law
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tools

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// remoteCatalog caches the aggregate remote capability list for the
// process lifetime. The first caller triggers one fetch per provider;
// racing callers share that fetch through singleflight. A failed fetch
// is logged and caches an empty contribution for that provider. It is
// not retried, so a service the operator never configured cannot cost
// a slow call on every introspection.
type remoteCatalog struct {
	remote *RemoteClient
	group  singleflight.Group

	mu          sync.RWMutex
	loaded      bool
	descriptors []CapabilityDescriptor
}

func newRemoteCatalog(remote *RemoteClient) *remoteCatalog {
	return &remoteCatalog{remote: remote}
}

// Get returns the cached remote descriptors, fetching them on first
// use. Concurrent first callers share a single underlying fetch.
func (c *remoteCatalog) Get(ctx context.Context) []CapabilityDescriptor {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.descriptors
	}
	c.mu.RUnlock()

	v, _, _ := c.group.Do("remote-catalog", func() (interface{}, error) {
		c.mu.RLock()
		if c.loaded {
			defer c.mu.RUnlock()
			return c.descriptors, nil
		}
		c.mu.RUnlock()

		descriptors := c.fetchAll(ctx)

		c.mu.Lock()
		c.descriptors = descriptors
		c.loaded = true
		c.mu.Unlock()

		return descriptors, nil
	})

	return v.([]CapabilityDescriptor)
}

// Loaded reports whether the catalog has been fetched.
func (c *remoteCatalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *remoteCatalog) fetchAll(ctx context.Context) []CapabilityDescriptor {
	if c.remote == nil {
		return nil
	}

	var all []CapabilityDescriptor
	for _, provider := range c.remote.ProviderNames() {
		if !c.remote.Configured(provider) {
			slog.Debug("Skipping capability catalog for unconfigured provider", "provider", provider)
			continue
		}

		descriptors, err := c.remote.Catalog(ctx, provider)
		if err != nil {
			// Degraded mode: the provider contributes zero
			// capabilities instead of failing introspection.
			slog.Warn("Failed to fetch capability catalog", "provider", provider, "error", err)
			continue
		}
		all = append(all, descriptors...)
	}
	return all
}
