package cmdutil

// WriteGuard embeds into a kong command struct a confirmation gate for
// operations that write to sensitive registers (UserDefinedName,
// DeviceConfiguration, TimestampLatch and the like).
type WriteGuard struct {
	Confirm bool `optional:"" type:"confirm" help:"Confirm the write before it is sent"`
}

// Allow reports whether the guarded write may proceed.
func (g *WriteGuard) Allow() bool { return g.Confirm }
