package account

const (
	selectByNumber = "SELECT number, owner, balance, created_at, modified_at FROM accounts WHERE number=$1;"
	insert         = "INSERT INTO accounts(number, owner, balance, created_at, modified_at) VALUES($1,$2,$3,$4,$5);"
	updateBalance  = "UPDATE accounts SET balance=$1, modified_at=$2 WHERE number=$3;"
	deleteByNumber = "DELETE FROM accounts WHERE number=$1;"
	sumBalances    = "SELECT COALESCE(SUM(balance), 0) FROM accounts;"
	countOwners    = "SELECT COUNT(DISTINCT owner) FROM accounts;"
)
