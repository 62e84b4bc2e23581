// Package provision creates new tenants: an isolated database, the tenant
// schema, an initial admin user, and finally the registry record that makes
// the tenant resolvable.
//
// The workflow runs strictly in that order and halts on the first failure,
// reporting the halting step through *Error. There is no automatic rollback:
// a migration failure leaves a created-but-unregistered database behind, and
// since the registry row is written last, no request can ever be routed to a
// half-provisioned tenant. Cleanup of such orphans is an operator task — a
// deliberate simplicity/availability tradeoff, not an oversight.
//
//	prov, err := provision.New(centralPool, registry, pg.NewMigrator(pgCfg, log), cfg)
//	if err != nil { ... }
//
//	t, err := prov.Provision(ctx, provision.Request{
//		Name:          "Acme Inc",
//		Subdomain:     "acme",
//		AdminEmail:    "owner@acme.test",
//		AdminPassword: "s3cret",
//	})
//	if step, ok := provision.StepOf(err); ok {
//		log.Error("provisioning halted", "step", step)
//	}
package provision
