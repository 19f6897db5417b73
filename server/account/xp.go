package account

// xpTable holds the XP required for levels 1->2, ..., 19->20.
var xpTable = []int{
	100,   // 1->2
	150,   // 2->3
	225,   // 3->4
	325,   // 4->5
	450,   // 5->6
	600,   // 6->7
	800,   // 7->8
	1050,  // 8->9
	1350,  // 9->10
	1700,  // 10->11
	2100,  // 11->12
	2600,  // 12->13
	3200,  // 13->14
	3900,  // 14->15
	4700,  // 15->16
	5600,  // 16->17
	6600,  // 17->18
	7800,  // 18->19
	9200,  // 19->20
}

// MaxLevel is reached once every entry of the XP table is paid.
var MaxLevel = len(xpTable) + 1

// ComputeLevel returns (level, xp into level, xp needed for next) for a
// total XP amount. next is 0 at max level.
func ComputeLevel(totalXP int) (int, int, int) {
	if totalXP < 0 {
		totalXP = 0
	}
	lvl := 1
	for _, need := range xpTable {
		if totalXP < need {
			return lvl, totalXP, need
		}
		totalXP -= need
		lvl++
	}
	return MaxLevel, 0, 0
}
