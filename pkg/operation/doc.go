/*
Package operation executes a rule's steps against a single file.

	+-------------+
	|   Engine    |
	|  (Execute)  |
	+------+------+
	       |
	+------+------+------+------+
	|      |      |      |      |
	copy  move rename delete insert_*
	       |
	+------+------+
	|  Conflict   |
	| Resolution  |
	+-------------+

🎯 Purpose:
- Runs the enabled steps of one rule in order
- Never overwrites: targets that exist get a _001, _002, ... suffix
- Guards delete against hidden, system and oversized files

🔄 Flow:
1. Validate the rule
2. Each step receives the path left by the previous step
3. A delete ends the rule
4. A failing step stops the rule; earlier steps stay applied

🤝 Interfaces:
- Executor: implemented by Engine, consumed by the folder monitor
*/
package operation
