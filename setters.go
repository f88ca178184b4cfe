package apicall

// Config returns a copy of the client's current settings.
func (c *Client) Config() Config {
	c.lk.RLock()
	defer c.lk.RUnlock()
	return c.cfg
}

func (c *Client) update(f func(cfg *Config)) *Client {
	c.lk.Lock()
	defer c.lk.Unlock()
	f(&c.cfg)
	return c
}

// SetAddress sets the base address of the remote API.
func (c *Client) SetAddress(address string) *Client {
	return c.update(func(cfg *Config) { cfg.Address = address })
}

// Address returns the trimmed base address, and false if none is set.
func (c *Client) Address() (string, bool) {
	a := trimAddress(c.Config().Address)
	return a, a != ""
}

// DoNotUseIPv4Resolve allows host names to resolve to IPv6 addresses.
func (c *Client) DoNotUseIPv4Resolve() *Client {
	return c.update(func(cfg *Config) { cfg.ResolveIPv4 = false })
}

// VerifyPeer enables verification of the server certificate chain.
func (c *Client) VerifyPeer() *Client {
	return c.update(func(cfg *Config) { cfg.VerifyPeer = true })
}

// VerifyHost enables verification of the server certificate name.
func (c *Client) VerifyHost() *Client {
	return c.update(func(cfg *Config) { cfg.VerifyHost = true })
}

// SetTimeout sets the per-call timeout in seconds. 0 disables it.
func (c *Client) SetTimeout(seconds int) *Client {
	return c.update(func(cfg *Config) { cfg.Timeout = seconds })
}

// UseProxy routes calls through the configured proxy.
func (c *Client) UseProxy() *Client {
	return c.update(func(cfg *Config) { cfg.UseProxy = true })
}

// SetProxyAddress sets the proxy host, host:port or URL.
func (c *Client) SetProxyAddress(address string) *Client {
	return c.update(func(cfg *Config) { cfg.ProxyAddress = address })
}

// SetProxyPort sets the proxy port, used when the address has none.
func (c *Client) SetProxyPort(port int) *Client {
	return c.update(func(cfg *Config) { cfg.ProxyPort = port })
}

// SetProxyUserPassword sets the proxy credentials as "user:password".
func (c *Client) SetProxyUserPassword(userpassword string) *Client {
	return c.update(func(cfg *Config) { cfg.ProxyUserPassword = userpassword })
}

// SetUnderscore toggles the conversion of CamelCase method names into
// underscored paths.
func (c *Client) SetUnderscore(use bool) *Client {
	return c.update(func(cfg *Config) { cfg.Underscore = use })
}

// UseUnderscores reports whether method names are underscored.
func (c *Client) UseUnderscores() bool {
	return c.Config().Underscore
}

// SetTransport replaces the transport used to open handles. nil restores
// DefaultTransport.
func (c *Client) SetTransport(tr Transport) *Client {
	c.lk.Lock()
	defer c.lk.Unlock()
	c.transport = tr
	return c
}

// SetMetrics enables metrics collection on m.
func (c *Client) SetMetrics(m *Metrics) *Client {
	c.lk.Lock()
	defer c.lk.Unlock()
	c.metrics = m
	return c
}
