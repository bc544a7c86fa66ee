// Command odimerge merges the contributions of a compilation unit into its
// merge targets.
//
// A unit is described by one or more YAML manifests listing its declarations.
// Upstream units are passed as artifacts on the classpath; each artifact is
// the output directory of an earlier odimerge run and holds the hint records
// and the public declarations of that unit.
//
// Usage
//
//	odimerge --unit app.yaml --classpath ../lib/out --out ./out
//
// Flags
//
//	-u, --unit        unit manifest location, repeatable
//	-c, --classpath   upstream artifact location, repeatable
//	-o, --out         where to write the artifact of this unit
//	    --config      YAML config file
//	    --driver      inprocess or rounds
//	    --max-rounds  upper bound on generation rounds
//	    --log-level   logrus level
//	    --log-format  text or json
//
// Locations may be plain paths or any URL viant/afs understands. Settings are
// read from the config file first, then ODIMERGE_* environment variables
// (a .env file is honoured), then flags.
//
// Output
//
// With --out set, the artifact holds:
//
//	<out>/odimerge/hint/*.yaml    one hint record per contributing declaration
//	<out>/odimerge/api.yaml       public declarations, generated ones included
//	<out>/odimerge/generated.yaml synthesized declarations
//	<out>/odimerge/generated.txt  readable listing of the synthesized code
//
// Exit codes are 0 on success, 1 when merging fails and 2 on usage errors.
// Merge failures are logged with the position and declaration they concern.
package main
