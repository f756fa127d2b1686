/*
Package health provides reachability checking for remote processors.

A processor's wait_until_ready cycle needs to know when sshd on a freshly
created instance starts accepting connections. TCPChecker dials the
instance's SSH address and reports a Result; pkg/processor polls it once per
readiness cycle rather than embedding its own dialer.

	checker := health.NewTCPChecker(instanceIP + ":22")
	result := checker.Check(ctx)
	if result.Healthy {
		// sshd is up
	}

The Checker interface exists so the processor's readiness loop isn't coupled
to TCP specifically, in case a future provider needs a different probe.
*/
package health
